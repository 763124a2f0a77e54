package common

import "fmt"

// ReportError formats err after the message, logs it at error level and
// returns the formatted message.
func ReportError(format string, err error, args ...interface{}) string {
	allArgs := make([]interface{}, len(args)+1)
	copy(allArgs, args)
	allArgs[len(allArgs)-1] = err
	message := fmt.Sprintf(format+": %v", allArgs...)
	Logger.Error(message)
	return message
}
