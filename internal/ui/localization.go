package ui

import (
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/davinciconvert/dnxhd-transcoder/internal/model"
)

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeySelectFiles       = "select_files"
	KeyOutputFolder      = "output_folder"
	KeyStart             = "start"
	KeyStopAll           = "stop_all"
	KeyClear             = "clear"
	KeySettings          = "settings"
	KeyFile              = "file"
	KeyLanguage          = "language"
	KeyPreset            = "preset"
	KeyPresetCustom      = "preset_custom"
	KeyDropHint          = "drop_hint"
	KeyOutputLabel       = "output_label"
	KeyOutputNotSelected = "output_not_selected"
	KeyFilesSelected     = "files_selected"
	KeyProfile           = "profile"
	KeyContainer         = "container"
	KeyAudioDepth        = "audio_depth"
	KeyChannels          = "channels"
	KeyPreserveFPS       = "preserve_fps"
	KeyFPS               = "fps"
	KeyDefineTimecode    = "define_timecode"
	KeyTimecode          = "timecode"
	KeyNormalize         = "normalize"
	KeyMXFNote           = "mxf_note"
	KeyStop              = "stop"
	KeyRestart           = "restart"
	KeyReveal            = "reveal"
	KeyOpen              = "open"
	KeyCopyPath          = "copy_path"
	KeyRemove            = "remove"
	KeyBatchCompleted    = "batch_completed"
	KeyBatchFailed       = "batch_failed"
	KeyBatchProgress     = "batch_progress"
	KeyNoFiles           = "no_files"
	KeySkippedFiles      = "skipped_files"
	KeyStartFailed       = "start_failed"
	KeyInvalidOptions    = "invalid_options"
	KeyOutputDirectory   = "output_directory"
	KeyMaxParallel       = "max_parallel"
	KeyAutoReveal        = "auto_reveal"
	KeyNotifyComplete    = "notify_complete"
	KeyTheme             = "theme"
	KeySave              = "save"
	KeyCancel            = "cancel"
	KeyBrowse            = "browse"
	KeySettingsSaved     = "settings_saved"
	KeyPathCopied        = "path_copied"
	KeyErrorOpeningFile  = "error_opening_file"
	KeyErrorStoppingJob  = "error_stopping_job"
	KeyToolsMissing      = "tools_missing"

	KeyStatusWaiting    = "status_waiting"
	KeyStatusStarting   = "status_starting"
	KeyStatusMeasuring  = "status_measuring"
	KeyStatusConverting = "status_converting"
	KeyStatusStopping   = "status_stopping"
	KeyStatusStopped    = "status_stopped"
	KeyStatusCompleted  = "status_completed"
	KeyStatusError      = "status_error"
)

// Supported language codes
const (
	LangSystem  = "system"
	LangEnglish = "en"
	LangPT      = "pt"
	LangRU      = "ru"
)

var supportedTags = []language.Tag{language.English, language.Portuguese, language.Russian}

var languageMatcher = language.NewMatcher(supportedTags)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: LangEnglish,
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language. "system" resolves from the locale
// environment.
func (l *Localization) SetLanguage(lang string) {
	if lang == LangSystem || lang == "" {
		lang = SystemLanguage()
	}

	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// SystemLanguage matches LC_ALL, LC_MESSAGES or LANG against the supported
// translations and falls back to English
func SystemLanguage() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := os.Getenv(env); value != "" {
			return MatchLanguage(value)
		}
	}
	return LangEnglish
}

// MatchLanguage maps a POSIX locale such as "pt_BR.UTF-8" to a supported code
func MatchLanguage(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return LangEnglish
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return LangEnglish
	}
	_, index, confidence := languageMatcher.Match(tag)
	if confidence == language.No {
		return LangEnglish
	}
	base, _ := supportedTags[index].Base()
	return base.String()
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	if texts, exists := l.texts[LangEnglish]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		LangEnglish: "English",
		LangRU:      "Русский",
		LangPT:      "Português",
	}
}

// StatusText returns the localized text shown next to a job's progress bar
func (l *Localization) StatusText(job *model.TranscodeJob) string {
	switch job.Status {
	case model.TaskStatusPending:
		return l.GetText(KeyStatusWaiting)
	case model.TaskStatusProbing:
		return l.GetText(KeyStatusStarting)
	case model.TaskStatusMeasuring:
		return l.GetText(KeyStatusMeasuring)
	case model.TaskStatusEncoding:
		return l.GetText(KeyStatusConverting)
	case model.TaskStatusStopping:
		return l.GetText(KeyStatusStopping)
	case model.TaskStatusStopped:
		return l.GetText(KeyStatusStopped)
	case model.TaskStatusCompleted:
		return l.GetText(KeyStatusCompleted)
	case model.TaskStatusError:
		return l.GetText(KeyStatusError)
	default:
		return job.Status.String()
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	l.texts[LangEnglish] = map[string]string{
		KeyAppTitle:          "DNxHD Transcoder",
		KeySelectFiles:       "Select files...",
		KeyOutputFolder:      "Output folder...",
		KeyStart:             "Start",
		KeyStopAll:           "Stop all",
		KeyClear:             "Clear",
		KeySettings:          "Settings",
		KeyFile:              "File",
		KeyLanguage:          "Language",
		KeyPreset:            "Preset",
		KeyPresetCustom:      "Custom",
		KeyDropHint:          "Select or Drag file here!",
		KeyOutputLabel:       "Output",
		KeyOutputNotSelected: "(not selected)",
		KeyFilesSelected:     "file(s) selected",
		KeyProfile:           "Profile",
		KeyContainer:         "Container",
		KeyAudioDepth:        "Audio",
		KeyChannels:          "Channels",
		KeyPreserveFPS:       "Preserve FPS",
		KeyFPS:               "FPS",
		KeyDefineTimecode:    "Define timecode",
		KeyTimecode:          "Timecode",
		KeyNormalize:         "Normalize audio (EBU R128 -23 LUFS)",
		KeyMXFNote:           "Audio resampled to 48 kHz",
		KeyStop:              "Stop",
		KeyRestart:           "Restart",
		KeyReveal:            "Reveal",
		KeyOpen:              "Open",
		KeyCopyPath:          "Path",
		KeyRemove:            "Remove",
		KeyBatchCompleted:    "Batch completed",
		KeyBatchFailed:       "Batch finished with errors",
		KeyBatchProgress:     "completed",
		KeyNoFiles:           "Select at least one video file",
		KeySkippedFiles:      "Skipped unsupported files",
		KeyStartFailed:       "Could not start conversion",
		KeyInvalidOptions:    "Invalid options",
		KeyOutputDirectory:   "Output Directory",
		KeyMaxParallel:       "Max Parallel Jobs",
		KeyAutoReveal:        "Reveal output when a batch completes",
		KeyNotifyComplete:    "Notify when a batch completes",
		KeyTheme:             "Theme",
		KeySave:              "Save",
		KeyCancel:            "Cancel",
		KeyBrowse:            "Browse",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyPathCopied:        "Path copied to clipboard",
		KeyErrorOpeningFile:  "Error opening file",
		KeyErrorStoppingJob:  "Error stopping job",
		KeyToolsMissing:      "ffmpeg with the dnxhd encoder was not found",
		KeyStatusWaiting:     "Waiting",
		KeyStatusStarting:    "Starting...",
		KeyStatusMeasuring:   "Measuring loudness...",
		KeyStatusConverting:  "Converting...",
		KeyStatusStopping:    "Stopping...",
		KeyStatusStopped:     "Stopped",
		KeyStatusCompleted:   "Completed",
		KeyStatusError:       "Error",
	}

	l.texts[LangRU] = map[string]string{
		KeyAppTitle:          "DNxHD Транскодер",
		KeySelectFiles:       "Выбрать файлы...",
		KeyOutputFolder:      "Папка вывода...",
		KeyStart:             "Старт",
		KeyStopAll:           "Остановить все",
		KeyClear:             "Очистить",
		KeySettings:          "Настройки",
		KeyFile:              "Файл",
		KeyLanguage:          "Язык",
		KeyPreset:            "Пресет",
		KeyPresetCustom:      "Свой",
		KeyDropHint:          "Выберите или перетащите файл сюда!",
		KeyOutputLabel:       "Вывод",
		KeyOutputNotSelected: "(не выбрано)",
		KeyFilesSelected:     "файл(ов) выбрано",
		KeyProfile:           "Профиль",
		KeyContainer:         "Контейнер",
		KeyAudioDepth:        "Аудио",
		KeyChannels:          "Каналы",
		KeyPreserveFPS:       "Сохранить FPS",
		KeyFPS:               "FPS",
		KeyDefineTimecode:    "Задать таймкод",
		KeyTimecode:          "Таймкод",
		KeyNormalize:         "Нормализовать звук (EBU R128 -23 LUFS)",
		KeyMXFNote:           "Аудио будет приведено к 48 кГц",
		KeyStop:              "Стоп",
		KeyRestart:           "Повтор",
		KeyReveal:            "Показать",
		KeyOpen:              "Открыть",
		KeyCopyPath:          "Путь",
		KeyRemove:            "Убрать",
		KeyBatchCompleted:    "Пакет завершён",
		KeyBatchFailed:       "Пакет завершён с ошибками",
		KeyBatchProgress:     "готово",
		KeyNoFiles:           "Выберите хотя бы один видеофайл",
		KeySkippedFiles:      "Пропущены неподдерживаемые файлы",
		KeyStartFailed:       "Не удалось начать конвертацию",
		KeyInvalidOptions:    "Неверные параметры",
		KeyOutputDirectory:   "Папка вывода",
		KeyMaxParallel:       "Макс. параллельных задач",
		KeyAutoReveal:        "Показать результат после пакета",
		KeyNotifyComplete:    "Уведомлять о завершении пакета",
		KeyTheme:             "Тема",
		KeySave:              "Сохранить",
		KeyCancel:            "Отмена",
		KeyBrowse:            "Обзор",
		KeySettingsSaved:     "Настройки успешно сохранены!",
		KeyPathCopied:        "Путь скопирован",
		KeyErrorOpeningFile:  "Ошибка открытия файла",
		KeyErrorStoppingJob:  "Ошибка остановки задачи",
		KeyToolsMissing:      "ffmpeg с кодеком dnxhd не найден",
		KeyStatusWaiting:     "Ожидание",
		KeyStatusStarting:    "Запуск...",
		KeyStatusMeasuring:   "Измерение громкости...",
		KeyStatusConverting:  "Конвертация...",
		KeyStatusStopping:    "Остановка...",
		KeyStatusStopped:     "Остановлено",
		KeyStatusCompleted:   "Готово",
		KeyStatusError:       "Ошибка",
	}

	l.texts[LangPT] = map[string]string{
		KeyAppTitle:          "DNxHD Transcoder",
		KeySelectFiles:       "Selecionar arquivos...",
		KeyOutputFolder:      "Pasta de saída...",
		KeyStart:             "Iniciar",
		KeyStopAll:           "Parar tudo",
		KeyClear:             "Limpar",
		KeySettings:          "Configurações",
		KeyFile:              "Arquivo",
		KeyLanguage:          "Idioma",
		KeyPreset:            "Predefinição",
		KeyPresetCustom:      "Personalizado",
		KeyDropHint:          "Selecione ou arraste o arquivo aqui!",
		KeyOutputLabel:       "Saída",
		KeyOutputNotSelected: "(não selecionada)",
		KeyFilesSelected:     "arquivo(s) selecionado(s)",
		KeyProfile:           "Perfil",
		KeyContainer:         "Contêiner",
		KeyAudioDepth:        "Áudio",
		KeyChannels:          "Canais",
		KeyPreserveFPS:       "Manter FPS",
		KeyFPS:               "FPS",
		KeyDefineTimecode:    "Definir timecode",
		KeyTimecode:          "Timecode",
		KeyNormalize:         "Normalizar áudio (EBU R128 -23 LUFS)",
		KeyMXFNote:           "Áudio reamostrado para 48 kHz",
		KeyStop:              "Parar",
		KeyRestart:           "Reiniciar",
		KeyReveal:            "Mostrar",
		KeyOpen:              "Abrir",
		KeyCopyPath:          "Caminho",
		KeyRemove:            "Remover",
		KeyBatchCompleted:    "Lote concluído",
		KeyBatchFailed:       "Lote concluído com erros",
		KeyBatchProgress:     "concluídos",
		KeyNoFiles:           "Selecione pelo menos um arquivo de vídeo",
		KeySkippedFiles:      "Arquivos não suportados ignorados",
		KeyStartFailed:       "Não foi possível iniciar a conversão",
		KeyInvalidOptions:    "Opções inválidas",
		KeyOutputDirectory:   "Diretório de Saída",
		KeyMaxParallel:       "Máx. Tarefas Paralelas",
		KeyAutoReveal:        "Mostrar saída ao concluir um lote",
		KeyNotifyComplete:    "Notificar ao concluir um lote",
		KeyTheme:             "Tema",
		KeySave:              "Salvar",
		KeyCancel:            "Cancelar",
		KeyBrowse:            "Navegar",
		KeySettingsSaved:     "Configurações salvas com sucesso!",
		KeyPathCopied:        "Caminho copiado",
		KeyErrorOpeningFile:  "Erro ao abrir arquivo",
		KeyErrorStoppingJob:  "Erro ao parar tarefa",
		KeyToolsMissing:      "ffmpeg com o codificador dnxhd não foi encontrado",
		KeyStatusWaiting:     "Aguardando",
		KeyStatusStarting:    "Iniciando...",
		KeyStatusMeasuring:   "Medindo volume...",
		KeyStatusConverting:  "Convertendo...",
		KeyStatusStopping:    "Parando...",
		KeyStatusStopped:     "Parado",
		KeyStatusCompleted:   "Concluído",
		KeyStatusError:       "Erro",
	}
}
