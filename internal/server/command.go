package server

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.heapstore/internal/storage"
)

func parseContainer(s string) (storage.ContainerID, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("bad container id %q", s)
	}
	return storage.ContainerID(n), nil
}

// parseValueID reads "<cid> <page> <slot>"
func parseValueID(parts []string) (storage.ValueID, error) {
	var vid storage.ValueID

	cid, err := parseContainer(parts[0])
	if err != nil {
		return vid, err
	}

	page, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return vid, fmt.Errorf("bad page id %q", parts[1])
	}

	slot, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return vid, fmt.Errorf("bad slot id %q", parts[2])
	}

	return storage.ValueID{
		ContainerID: cid,
		PageID:      storage.PageID(page),
		SlotID:      storage.SlotID(slot),
	}, nil
}

func formatValueID(vid storage.ValueID) Msg {
	return Msg(fmt.Sprintf("%d %d %d", vid.ContainerID, vid.PageID, vid.SlotID))
}

// remainder returns line after its first n fields and the one separator
// that follows them. The rest is kept byte for byte.
func remainder(line string, n int) string {
	rest := line
	for range n {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		rest = rest[i:]
	}

	_, size := utf8.DecodeRuneInString(rest)
	return rest[size:]
}

func errResponse(err error) Response {
	return Err(Msg(err.Error()))
}

func (s *Server) authCommand(sess *Session, parts []string) Response {
	if len(parts) != 3 {
		return Usage("AUTH <username> <password>")
	}

	u, err := s.auth.Authenticate(parts[1], parts[2])
	if err != nil {
		s.log.Warnf("failed login for %q", parts[1])
		return errResponse(err)
	}

	sess.user = u
	return Respond(OK)
}

func (s *Server) insertCommand(sess *Session, parts []string, line string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) < 3 {
		return Usage("INSERT <cid> <value>")
	}

	cid, err := parseContainer(parts[1])
	if err != nil {
		return errResponse(err)
	}

	if !sess.canWrite(cid) {
		return Err(NoPerm)
	}

	value := remainder(line, 2)
	vid, err := s.db.InsertValue(cid, []byte(value), sess.tid)
	if err != nil {
		return errResponse(err)
	}

	return Respond(formatValueID(vid))
}

func (s *Server) getCommand(sess *Session, parts []string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) != 4 {
		return Usage("GET <cid> <page> <slot>")
	}

	vid, err := parseValueID(parts[1:])
	if err != nil {
		return errResponse(err)
	}

	if !sess.canRead(vid.ContainerID) {
		return Err(NoPerm)
	}

	val, err := s.db.GetValue(vid, sess.tid, sess.user.Permission())
	if err != nil {
		return errResponse(err)
	}

	return Respond(Msg(val))
}

func (s *Server) delCommand(sess *Session, parts []string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) != 4 {
		return Usage("DEL <cid> <page> <slot>")
	}

	vid, err := parseValueID(parts[1:])
	if err != nil {
		return errResponse(err)
	}

	if !sess.canWrite(vid.ContainerID) {
		return Err(NoPerm)
	}

	if err := s.db.DeleteValue(vid, sess.tid); err != nil {
		return errResponse(err)
	}

	return Respond(OK)
}

func (s *Server) updateCommand(sess *Session, parts []string, line string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) < 5 {
		return Usage("UPDATE <cid> <page> <slot> <value>")
	}

	vid, err := parseValueID(parts[1:4])
	if err != nil {
		return errResponse(err)
	}

	if !sess.canWrite(vid.ContainerID) {
		return Err(NoPerm)
	}

	value := remainder(line, 4)
	moved, err := s.db.UpdateValue([]byte(value), vid, sess.tid)
	if err != nil {
		return errResponse(err)
	}

	return Respond(formatValueID(moved))
}

func (s *Server) scanCommand(sess *Session, parts []string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) != 2 {
		return Usage("SCAN <cid>")
	}

	cid, err := parseContainer(parts[1])
	if err != nil {
		return errResponse(err)
	}

	if !sess.canRead(cid) {
		return Err(NoPerm)
	}

	it, err := s.db.GetIterator(cid, sess.tid, sess.user.Permission())
	if err != nil {
		return errResponse(err)
	}

	var b strings.Builder
	for it.Next() {
		vid := it.ID()
		fmt.Fprintf(&b, "%d %d %s\n", vid.PageID, vid.SlotID, it.Value())
	}
	if err := it.Err(); err != nil {
		return errResponse(err)
	}

	if b.Len() == 0 {
		return Respond("(empty)")
	}
	return Respond(Msg(strings.TrimSuffix(b.String(), "\n")))
}

func (s *Server) listCommand(sess *Session, parts []string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) != 1 {
		return Usage("LIST")
	}

	var lines []string
	for _, info := range s.db.Containers() {
		if !sess.user.CanAccess(info.ID) {
			continue
		}
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%d %s %s", info.ID, info.Type, info.Name)))
	}

	if len(lines) == 0 {
		return Respond("(empty)")
	}
	return Respond(Msg(strings.Join(lines, "\n")))
}

// COMMIT ends the session's transaction and starts a new one
func (s *Server) commitCommand(sess *Session, parts []string) Response {
	if !sess.IsAuth() {
		return Err(NoAuth)
	}

	if len(parts) != 1 {
		return Usage("COMMIT")
	}

	s.db.TransactionFinished(sess.tid)
	sess.tid = storage.NewTransactionID()
	return Respond(OK)
}
