package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

type refKind uint8

const (
	refSelf refKind = iota
	refID
	refName
)

// UserRef identifies the user a lookup targets: the caller, a user id, or a username.
// The zero value refers to the caller.
type UserRef struct {
	kind refKind
	id   int32
	name string
}

// Self refers to the currently logged in user.
func Self() UserRef { return UserRef{} }

// ByID refers to a user by numeric id.
func ByID(id int32) UserRef { return UserRef{kind: refID, id: id} }

// ByName refers to a user by username.
func ByName(name string) UserRef { return UserRef{kind: refName, name: name} }

// ParseUserRef converts free-form input into a UserRef using a lexical rule:
// an empty string is the caller, a string that parses fully as a base-10 int32
// is an id, and anything else is a username. A username made only of digits is
// therefore read as an id; callers that know which one they hold should use
// ByID or ByName instead.
//
// The rule is narrower than a general numeric parse: decimals ("4.5"),
// exponents ("1e3"), padded input (" 42") and values outside the int32 range
// are usernames, since none of them can name a user id the backend accepts.
func ParseUserRef(s string) UserRef {
	if s == "" {
		return Self()
	}
	if id, err := strconv.ParseInt(s, 10, 32); err == nil {
		return ByID(int32(id))
	}
	return ByName(s)
}

// IsSelf reports whether ref targets the currently logged in user.
func (ref UserRef) IsSelf() bool { return ref.kind == refSelf }

// ID returns the referenced id, if ref was built from one.
func (ref UserRef) ID() (int32, bool) { return ref.id, ref.kind == refID }

// Name returns the referenced username, if ref was built from one.
func (ref UserRef) Name() (string, bool) { return ref.name, ref.kind == refName }

// Query returns the request body for ref, or nil when ref targets the caller.
func (ref UserRef) Query() *GetUserQuery {
	switch ref.kind {
	case refID:
		id := ref.id
		return &GetUserQuery{UserID: &id}
	case refName:
		name := ref.name
		return &GetUserQuery{Username: &name}
	default:
		return nil
	}
}

func (ref UserRef) String() string {
	switch ref.kind {
	case refID:
		return "id " + strconv.FormatInt(int64(ref.id), 10)
	case refName:
		return "username " + strconv.Quote(ref.name)
	default:
		return "self"
	}
}

// GetUserQuery is the body of a user lookup. Exactly one field is set.
type GetUserQuery struct {
	Username *string `json:"Username,omitempty"`
	UserID   *int32  `json:"UserId,omitempty"`
}

// LogScope selects whose transactions a log request returns.
// The zero value is the caller's own log.
type LogScope struct {
	everyone bool
	userID   *int32
}

// LogSelf selects the currently logged in user's transactions.
func LogSelf() LogScope { return LogScope{} }

// LogForUser selects the transactions of the given user.
func LogForUser(id int32) LogScope { return LogScope{userID: &id} }

// LogForEveryone selects every recorded transaction.
func LogForEveryone() LogScope { return LogScope{everyone: true} }

// Query returns the request body for scope, or nil for the caller's own log.
func (scope LogScope) Query() *LogQuery {
	switch {
	case scope.everyone:
		return &LogQuery{}
	case scope.userID != nil:
		id := *scope.userID
		return &LogQuery{UserID: &id}
	default:
		return nil
	}
}

// LogQuery is the body of a transaction log request.
// It encodes as {"UserId": n} for one user and as "ForEveryone" when UserID is nil.
type LogQuery struct {
	UserID *int32
}

const logForEveryone = "ForEveryone"

// ErrInvalidLogQuery is returned when a log query body has neither accepted form.
var ErrInvalidLogQuery = errors.New("models: invalid log query")

func (q LogQuery) MarshalJSON() ([]byte, error) {
	if q.UserID == nil {
		return json.Marshal(logForEveryone)
	}
	return json.Marshal(struct {
		UserID int32 `json:"UserId"`
	}{UserID: *q.UserID})
}

func (q *LogQuery) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != logForEveryone {
			return ErrInvalidLogQuery
		}
		q.UserID = nil
		return nil
	}

	var byUser struct {
		UserID *int32 `json:"UserId"`
	}
	if err := json.Unmarshal(data, &byUser); err != nil {
		return err
	}
	if byUser.UserID == nil {
		return ErrInvalidLogQuery
	}
	q.UserID = byUser.UserID
	return nil
}
