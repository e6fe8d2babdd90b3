package game

// Scope says how an event is delivered: to every connection in the session
// room, to the connection of one named player (resolved at send time), or to
// the connection that submitted the intent.
type Scope int

const (
	Broadcast Scope = iota
	Unicast
	Reply
)

// Event is one outbound message produced by a session operation. Session
// mutations run under the session lock and return their events as a snapshot;
// the router fans them out after the lock is released.
type Event struct {
	Scope   Scope
	Target  string // player name, set only for Unicast
	Type    string
	Payload interface{}
}

func broadcast(msgType string, payload interface{}) Event {
	return Event{Scope: Broadcast, Type: msgType, Payload: payload}
}

func unicast(target, msgType string, payload interface{}) Event {
	return Event{Scope: Unicast, Target: target, Type: msgType, Payload: payload}
}

func reply(msgType string, payload interface{}) Event {
	return Event{Scope: Reply, Type: msgType, Payload: payload}
}
