package model

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Profile is a DNxHR profile accepted by ffmpeg's dnxhd encoder (-profile:v)
type Profile string

const (
	ProfileLB  Profile = "dnxhr_lb"
	ProfileSQ  Profile = "dnxhr_sq"
	ProfileHQ  Profile = "dnxhr_hq"
	ProfileHQX Profile = "dnxhr_hqx"
	Profile444 Profile = "dnxhr_444"
)

// Container is the output container format
type Container string

const (
	ContainerMOV Container = "mov"
	ContainerMXF Container = "mxf"
)

// AudioDepth is the PCM sample depth in bits
type AudioDepth int

const (
	AudioDepth16 AudioDepth = 16
	AudioDepth24 AudioDepth = 24
)

// Defaults mirror the initial state of the options panel
const (
	DefaultProfile       = ProfileHQ
	DefaultContainer     = ContainerMOV
	DefaultAudioDepth    = AudioDepth16
	DefaultAudioChannels = 2
	DefaultPreserveFPS   = true
	DefaultTargetFPS     = 25.0
	DefaultTimecode      = "00:00:00:00"
)

// Limits
const (
	MinTargetFPS  = 1.0
	MaxTargetFPS  = 120.0
	TargetFPSStep = 0.1

	MXFSampleRate = 48000
)

// Pixel formats selected per profile
const (
	PixFmt422    = "yuv422p"
	PixFmt422P10 = "yuv422p10le"
	PixFmt444P10 = "yuv444p10le"
)

var profileOrder = []Profile{ProfileLB, ProfileSQ, ProfileHQ, ProfileHQX, Profile444}

var profileLabels = map[Profile]string{
	ProfileLB:  "DNxHR LB (Low Bandwidth)",
	ProfileSQ:  "DNxHR SQ (Standard Quality)",
	ProfileHQ:  "DNxHR HQ (High Quality)",
	ProfileHQX: "DNxHR HQX (High Quality 10-bit)",
	Profile444: "DNxHR 444 (4:4:4 10-bit)",
}

// AudioChannelOptions lists the selectable channel counts
var AudioChannelOptions = []int{2, 4, 8}

var timecodePattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})([:;])(\d{2})$`)

// Profiles returns all profiles from lowest to highest bandwidth
func Profiles() []Profile {
	out := make([]Profile, len(profileOrder))
	copy(out, profileOrder)
	return out
}

// Label returns the human readable profile name
func (p Profile) Label() string {
	if label, ok := profileLabels[p]; ok {
		return label
	}
	return string(p)
}

// PixelFormat returns the pixel format the profile must be fed with
func (p Profile) PixelFormat() string {
	switch p {
	case ProfileHQX:
		return PixFmt422P10
	case Profile444:
		return PixFmt444P10
	default:
		return PixFmt422
	}
}

// Valid reports whether p is a known profile
func (p Profile) Valid() bool {
	_, ok := profileLabels[p]
	return ok
}

// ParseProfile accepts full profile names (dnxhr_hq) and short names (hq)
func ParseProfile(value string) (Profile, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return DefaultProfile, nil
	}
	if !strings.HasPrefix(v, "dnxhr_") {
		v = "dnxhr_" + v
	}
	p := Profile(v)
	if !p.Valid() {
		return "", fmt.Errorf("unsupported profile %q", value)
	}
	return p, nil
}

// ProfileFromLabel maps a label produced by Label back to its profile
func ProfileFromLabel(label string) (Profile, bool) {
	for p, l := range profileLabels {
		if l == label {
			return p, true
		}
	}
	return "", false
}

// Containers returns the supported containers
func Containers() []Container {
	return []Container{ContainerMOV, ContainerMXF}
}

// Extension returns the output file extension including the dot
func (c Container) Extension() string {
	return "." + string(c)
}

// Valid reports whether c is a supported container
func (c Container) Valid() bool {
	return c == ContainerMOV || c == ContainerMXF
}

// ParseContainer accepts "mov", "MXF", ".mov" and similar spellings
func ParseContainer(value string) (Container, error) {
	v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".")
	if v == "" {
		return DefaultContainer, nil
	}
	c := Container(v)
	if !c.Valid() {
		return "", fmt.Errorf("unsupported container %q", value)
	}
	return c, nil
}

// AudioDepths returns the selectable PCM depths
func AudioDepths() []AudioDepth {
	return []AudioDepth{AudioDepth16, AudioDepth24}
}

// Codec returns the ffmpeg PCM encoder for the depth
func (d AudioDepth) Codec() string {
	if d == AudioDepth24 {
		return "pcm_s24le"
	}
	return "pcm_s16le"
}

// Label returns "PCM 16-bit" style text
func (d AudioDepth) Label() string {
	return fmt.Sprintf("PCM %d-bit", int(d))
}

// Valid reports whether d is a supported depth
func (d AudioDepth) Valid() bool {
	return d == AudioDepth16 || d == AudioDepth24
}

// ChannelLabel returns "2 ch" style text
func ChannelLabel(channels int) string {
	return fmt.Sprintf("%d ch", channels)
}

// ContainerRules describes what a container accepts
type ContainerRules struct {
	Container  Container
	SampleRate int // 0 keeps the source rate
}

// Compatibility returns the encode constraints of a container.
// libavformat's mxfenc rejects any PCM rate other than 48 kHz
// ("Only 48khz is implemented"); profiles and channel counts are unrestricted.
func Compatibility(c Container) ContainerRules {
	if c == ContainerMXF {
		return ContainerRules{Container: c, SampleRate: MXFSampleRate}
	}
	return ContainerRules{Container: c}
}

// EncodeOptions is the job configuration shared by every file of a batch
type EncodeOptions struct {
	Profile           Profile
	Container         Container
	AudioDepth        AudioDepth
	AudioChannels     int
	PreserveFPS       bool
	TargetFPS         float64
	SetTimecode       bool
	Timecode          string
	NormalizeLoudness bool
}

// DefaultEncodeOptions returns the options a fresh install starts with
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Profile:       DefaultProfile,
		Container:     DefaultContainer,
		AudioDepth:    DefaultAudioDepth,
		AudioChannels: DefaultAudioChannels,
		PreserveFPS:   DefaultPreserveFPS,
		TargetFPS:     DefaultTargetFPS,
		Timecode:      DefaultTimecode,
	}
}

// Rules returns the container rules for the selected container
func (o EncodeOptions) Rules() ContainerRules {
	return Compatibility(o.Container)
}

// Normalize returns a copy with empty optional fields defaulted
func (o EncodeOptions) Normalize() EncodeOptions {
	if strings.TrimSpace(o.Timecode) == "" {
		o.Timecode = DefaultTimecode
	}
	return o
}

// Validate reports every invalid field at once
func (o EncodeOptions) Validate() error {
	var errs []error
	if !o.Profile.Valid() {
		errs = append(errs, fmt.Errorf("profile: unsupported value %q", o.Profile))
	}
	if !o.Container.Valid() {
		errs = append(errs, fmt.Errorf("container: unsupported value %q", o.Container))
	}
	if !o.AudioDepth.Valid() {
		errs = append(errs, fmt.Errorf("audio_depth: must be 16 or 24, got %d", o.AudioDepth))
	}
	if !validChannels(o.AudioChannels) {
		errs = append(errs, fmt.Errorf("audio_channels: must be one of 2, 4, 8, got %d", o.AudioChannels))
	}
	if !o.PreserveFPS {
		if math.IsNaN(o.TargetFPS) || o.TargetFPS < MinTargetFPS || o.TargetFPS > MaxTargetFPS {
			errs = append(errs, fmt.Errorf("target_fps: must be between %.0f and %.0f, got %v", MinTargetFPS, MaxTargetFPS, o.TargetFPS))
		}
	}
	if o.SetTimecode {
		maxFrames := 0
		if !o.PreserveFPS {
			maxFrames = int(math.Ceil(o.TargetFPS))
		}
		if err := ValidateTimecode(o.Timecode, maxFrames); err != nil {
			errs = append(errs, fmt.Errorf("timecode: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ValidateTimecode checks an HH:MM:SS:FF (or drop-frame HH:MM:SS;FF) value.
// maxFrames bounds FF when the output frame rate is known; 0 skips the check.
func ValidateTimecode(tc string, maxFrames int) error {
	m := timecodePattern.FindStringSubmatch(strings.TrimSpace(tc))
	if m == nil {
		return fmt.Errorf("%q is not HH:MM:SS:FF", tc)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	frames, _ := strconv.Atoi(m[5])
	switch {
	case hours > 23:
		return fmt.Errorf("hours out of range in %q", tc)
	case minutes > 59:
		return fmt.Errorf("minutes out of range in %q", tc)
	case seconds > 59:
		return fmt.Errorf("seconds out of range in %q", tc)
	case maxFrames > 0 && frames >= maxFrames:
		return fmt.Errorf("frame %d out of range for %d fps in %q", frames, maxFrames, tc)
	}
	return nil
}

func validChannels(channels int) bool {
	for _, c := range AudioChannelOptions {
		if c == channels {
			return true
		}
	}
	return false
}
