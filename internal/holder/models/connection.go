package models

import (
	"fmt"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
)

// ConnectionState is the lifecycle state the agent reports for a connection.
type ConnectionState string

const (
	ConnectionStateInvitation ConnectionState = "invitation"
	ConnectionStateRequest    ConnectionState = "request"
	ConnectionStateResponse   ConnectionState = "response"
	ConnectionStateActive     ConnectionState = "active"
	ConnectionStateCompleted  ConnectionState = "completed"
	ConnectionStateError      ConnectionState = "error"

	// ConnectionStateUnrecognized marks a value outside the known set. The
	// raw value is kept in Connection.RemoteState.
	ConnectionStateUnrecognized ConnectionState = "unrecognized"
)

var knownStates = map[ConnectionState]struct{}{
	ConnectionStateInvitation: {},
	ConnectionStateRequest:    {},
	ConnectionStateResponse:   {},
	ConnectionStateActive:     {},
	ConnectionStateCompleted:  {},
	ConnectionStateError:      {},
}

// ParseConnectionState maps a raw agent state. Unknown values yield
// ConnectionStateUnrecognized and an error matching ErrUnrecognizedState.
func ParseConnectionState(raw string) (ConnectionState, error) {
	s := ConnectionState(raw)
	if _, ok := knownStates[s]; ok {
		return s, nil
	}
	return ConnectionStateUnrecognized, fmt.Errorf("%w: connection state %q", common.ErrUnrecognizedState, raw)
}

// IsTerminal reports whether no further transitions are expected.
func (s ConnectionState) IsTerminal() bool {
	return s == ConnectionStateCompleted || s == ConnectionStateError
}

// Connection is the local projection of an agent connection record.
type Connection struct {
	ID            int64           `json:"id,omitempty"`
	UserID        int64           `json:"user_id,omitempty"`
	ConnectionID  string          `json:"connection_id"`
	State         ConnectionState `json:"state"`
	RemoteState   string          `json:"remote_state,omitempty"`
	TheirDID      *string         `json:"their_did"`
	MyDID         *string         `json:"my_did"`
	InvitationKey *string         `json:"invitation_key"`
	Alias         *string         `json:"alias"`
	TheirLabel    *string         `json:"their_label"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
