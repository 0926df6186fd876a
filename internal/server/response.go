package server

type Msg string

const (
	Prompt Msg = "heapstore> "
	OK     Msg = "OK"
	Bye    Msg = "Bye"

	NoAuth  Msg = "Not authenticated"
	NoPerm  Msg = "Permission denied"
	Unknown Msg = "Unknown command"
)

type Response struct {
	Msg   Msg
	Close bool
}

func Respond(m Msg) Response {
	return Response{Msg: m}
}

func Err(m Msg) Response {
	return Response{Msg: "ERR: " + m}
}

func Usage(usage string) Response {
	return Err(Msg("Usage " + usage))
}
