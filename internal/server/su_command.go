package server

import (
	"errors"
	"strings"

	"go.heapstore/internal/auth"
	"go.heapstore/internal/engine"
	"go.heapstore/internal/storage"
)

func (s *Server) superuser(sess *Session) (Response, bool) {
	if !sess.IsAuth() {
		return Err(NoAuth), false
	}

	if !sess.user.IsSuperuser() {
		return Err(NoPerm), false
	}

	return Response{}, true
}

func (s *Server) createCommand(sess *Session, parts []string) Response {
	if resp, ok := s.superuser(sess); !ok {
		return resp
	}

	if len(parts) < 2 {
		return Usage("CREATE <cid> [name]")
	}

	cid, err := parseContainer(parts[1])
	if err != nil {
		return errResponse(err)
	}

	name := strings.Join(parts[2:], " ")
	err = s.db.CreateContainer(cid, engine.SimpleContainerConfig(), name, engine.BaseTable, nil)
	if err != nil {
		return errResponse(err)
	}

	s.log.Infof("%s created container %d", sess.user.Username, cid)
	return Respond(OK)
}

func (s *Server) dropCommand(sess *Session, parts []string) Response {
	if resp, ok := s.superuser(sess); !ok {
		return resp
	}

	if len(parts) != 2 {
		return Usage("DROP <cid>")
	}

	cid, err := parseContainer(parts[1])
	if err != nil {
		return errResponse(err)
	}

	if err := s.db.RemoveContainer(cid); err != nil {
		return errResponse(err)
	}

	s.log.Infof("%s dropped container %d", sess.user.Username, cid)
	return Respond(OK)
}

func (s *Server) createUserCommand(sess *Session, parts []string) Response {
	if resp, ok := s.superuser(sess); !ok {
		return resp
	}

	if len(parts) != 4 {
		return Usage("CREATEUSER <username> <password> <role>")
	}

	err := s.auth.CreateUser(parts[1], parts[2], auth.Role(parts[3]))
	if errors.Is(err, auth.ErrUserExists) {
		return Err("User already exists")
	}
	if err != nil {
		return errResponse(err)
	}

	return Respond(OK)
}

func (s *Server) delUserCommand(sess *Session, parts []string) Response {
	if resp, ok := s.superuser(sess); !ok {
		return resp
	}

	if len(parts) != 2 {
		return Usage("DELUSER <username>")
	}

	if parts[1] == sess.user.Username {
		return Err("Cannot delete the current user")
	}

	if err := s.auth.Store().DeleteUser(parts[1]); err != nil {
		return errResponse(err)
	}

	return Respond(OK)
}

func (s *Server) grantCommand(sess *Session, parts []string) Response {
	return s.changeAccess(sess, parts, "GRANT", s.auth.Grant)
}

func (s *Server) revokeCommand(sess *Session, parts []string) Response {
	return s.changeAccess(sess, parts, "REVOKE", s.auth.Revoke)
}

func (s *Server) changeAccess(sess *Session, parts []string, verb string, fn func(string, storage.ContainerID) error) Response {
	if resp, ok := s.superuser(sess); !ok {
		return resp
	}

	if len(parts) != 3 {
		return Usage(verb + " <user> <cid>")
	}

	cid, err := parseContainer(parts[2])
	if err != nil {
		return errResponse(err)
	}

	if err := fn(parts[1], cid); err != nil {
		return errResponse(err)
	}

	return Respond(OK)
}
