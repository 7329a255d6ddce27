package logging

import "log/slog"

// Domain identifiers

func Identity(id int64) slog.Attr {
	return slog.Int64("identity", id)
}

func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

func Event(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

func Record(id string) slog.Attr {
	return slog.String("record_id", id)
}

func Intent(id uint64) slog.Attr {
	return slog.Uint64("intent_id", id)
}

func ClientMsg(id string) slog.Attr {
	return slog.String("client_msg_id", id)
}

// Connection / transport

func Socket(id string) slog.Attr {
	return slog.String("socket_id", id)
}

func State(s string) slog.Attr {
	return slog.String("state", s)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
