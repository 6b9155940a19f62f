package utils

import log "github.com/sirupsen/logrus"

// PerfLog reports a slow external call as a warning and everything else at debug level.
func PerfLog(timeMs int64, thresholdMs int64, operation string) {
	entry := log.WithFields(log.Fields{"operation": operation, "took_ms": timeMs})
	if timeMs > thresholdMs {
		entry.Warnf("PERF: %s took %d ms more than expected (%d ms)", operation, timeMs, thresholdMs)
		return
	}
	entry.Debugf("PERF: %s took %d ms", operation, timeMs)
}
