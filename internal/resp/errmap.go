package resp

import (
	"strings"

	cgerrors "github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// ErrNoAuth is the fixed message unauthenticated connections receive for
// any command besides PING/AUTH (spec §4.3).
const ErrNoAuth = "NOAUTH Authentication required"

// ErrUnknownCommand formats the unknown-command error for name.
func ErrUnknownCommand(name string) string {
	return "ERR unknown command '" + name + "'"
}

// ToValue maps a core error to a RESP error reply. WRONGTYPE errors already
// carry that prefix in their message; everything else gets the
// conventional "ERR " prefix (spec §4.3, §7).
func ToValue(err error) Value {
	se := cgerrors.GetServiceError(err)
	if se == nil {
		return Error("ERR " + err.Error())
	}
	if strings.HasPrefix(se.Message, "WRONGTYPE") {
		return Error(se.Message)
	}
	return Error("ERR " + se.Message)
}
