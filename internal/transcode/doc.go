// Package transcode runs DNxHR conversion jobs. A Service accepts batches
// of input files, queues them in FIFO order and drives each one through
// probing, optional loudness measurement and encoding, reporting snapshots
// of job state through a single update callback.
package transcode
