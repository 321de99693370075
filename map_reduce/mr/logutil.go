package mr

import (
	"encoding/json"
	"log"
)

// debugf logs with every argument rendered as JSON.
func debugf(logger *log.Logger, format string, a ...interface{}) {
	args := make([]interface{}, len(a))
	for i, d := range a {
		m, _ := json.Marshal(d)
		args[i] = string(m)
	}
	logger.Printf(format, args...)
}
