package tgui

import (
	"errors"
	"strings"
)

// MaxCallbackDataLen is Telegram's callback_data size limit in bytes.
const MaxCallbackDataLen = 64

var ErrCallbackDataTooLong = errors.New("tgui: callback_data too long")

// Data formats inline callback data as "action:arg:arg...".
// Args are kept as-is (no escaping), so they must not contain ':'.
func Data(action string, args ...string) string {
	parts := append([]string{strings.TrimSpace(action)}, args...)
	return strings.Join(parts, ":")
}

// ParseData splits callback data produced by Data back into
// action and args. Telebot may prefix callback data with "\f";
// that prefix is stripped.
func ParseData(data string) (action string, args []string) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}
