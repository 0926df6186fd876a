package server

import (
	"bufio"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.heapstore/internal/auth"
	"go.heapstore/internal/config"
	"go.heapstore/internal/engine"
	"go.heapstore/internal/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	sm, err := engine.NewTestSM()
	require.NoError(t, err)
	t.Cleanup(func() { sm.Shutdown() })

	cfg := &config.Config{
		Addr:     "127.0.0.1:0",
		UserFile: filepath.Join(t.TempDir(), "users.json"),
	}

	s, err := New(cfg, sm, logger.Discard())
	require.NoError(t, err)

	require.NoError(t, s.auth.CreateUser("root", "rootpw", auth.RoleSuperuser))
	return s
}

// login returns a session already authenticated as username
func login(t *testing.T, s *Server, username, password string) *Session {
	t.Helper()

	sess := newSession()
	resp := s.exec(sess, "AUTH "+username+" "+password)
	require.Equal(t, OK, resp.Msg)
	return sess
}

func TestAuthCommand(t *testing.T) {
	s := newTestServer(t)
	sess := newSession()

	assert.Equal(t, Err(NoAuth), s.exec(sess, "LIST"))
	assert.Equal(t, Usage("AUTH <username> <password>"), s.exec(sess, "AUTH root"))
	assert.Equal(t, Err(Msg(auth.ErrInvalidCredentials.Error())), s.exec(sess, "AUTH root nope"))
	assert.Equal(t, Respond(OK), s.exec(sess, "auth root rootpw"))
	assert.True(t, sess.IsAuth())
}

func TestInsertGetUpdateDelete(t *testing.T) {
	s := newTestServer(t)
	sess := login(t, s, "root", "rootpw")

	assert.Equal(t, Respond(OK), s.exec(sess, "CREATE 1 people"))
	assert.Equal(t, Msg("1 0 0"), s.exec(sess, "INSERT 1 hello world").Msg)
	assert.Equal(t, Msg("1 0 1"), s.exec(sess, "INSERT 1 second").Msg)

	assert.Equal(t, Msg("hello world"), s.exec(sess, "GET 1 0 0").Msg)

	assert.Equal(t, Msg("1 0 0"), s.exec(sess, "UPDATE 1 0 0 hi").Msg)
	assert.Equal(t, Msg("hi"), s.exec(sess, "GET 1 0 0").Msg)

	assert.Equal(t, Respond(OK), s.exec(sess, "DEL 1 0 0"))
	assert.Equal(t, Respond(OK), s.exec(sess, "DEL 1 0 0"))
	assert.True(t, strings.HasPrefix(string(s.exec(sess, "GET 1 0 0").Msg), "ERR: "))

	assert.Equal(t, Msg("0 1 second"), s.exec(sess, "SCAN 1").Msg)
	assert.Equal(t, Msg("1 base-table people"), s.exec(sess, "LIST").Msg)
}

func TestBadArguments(t *testing.T) {
	s := newTestServer(t)
	sess := login(t, s, "root", "rootpw")

	assert.Equal(t, Usage("GET <cid> <page> <slot>"), s.exec(sess, "GET 1 0"))
	assert.Equal(t, Usage("INSERT <cid> <value>"), s.exec(sess, "INSERT 1"))
	assert.Equal(t, Err(`bad container id "x"`), s.exec(sess, "SCAN x"))
	assert.Equal(t, Err(`bad container id "70000"`), s.exec(sess, "CREATE 70000"))
	assert.Equal(t, Err(`bad slot id "-1"`), s.exec(sess, "GET 1 0 -1"))
	assert.Equal(t, Err(Unknown), s.exec(sess, "FROB"))
	assert.Equal(t, Respond(""), s.exec(sess, "   "))

	resp := s.exec(sess, "SCAN 9")
	assert.True(t, strings.HasPrefix(string(resp.Msg), "ERR: "))
}

func TestRolePermissions(t *testing.T) {
	s := newTestServer(t)
	root := login(t, s, "root", "rootpw")

	require.Equal(t, Respond(OK), s.exec(root, "CREATE 1"))
	require.Equal(t, Respond(OK), s.exec(root, "CREATE 2"))
	require.Equal(t, Msg("1 0 0"), s.exec(root, "INSERT 1 seed").Msg)
	require.Equal(t, Respond(OK), s.exec(root, "CREATEUSER alice pw user"))
	require.Equal(t, Respond(OK), s.exec(root, "CREATEUSER gus pw guest"))
	require.Equal(t, Respond(OK), s.exec(root, "GRANT alice 1"))
	require.Equal(t, Respond(OK), s.exec(root, "GRANT gus 1"))

	alice := login(t, s, "alice", "pw")
	assert.Equal(t, Msg("1 0 1"), s.exec(alice, "INSERT 1 mine").Msg)
	assert.Equal(t, Err(NoPerm), s.exec(alice, "INSERT 2 nope"))
	assert.Equal(t, Err(NoPerm), s.exec(alice, "CREATE 3"))
	assert.Equal(t, Err(NoPerm), s.exec(alice, "DROP 1"))
	assert.Equal(t, Msg("1 base-table"), s.exec(alice, "LIST").Msg)

	gus := login(t, s, "gus", "pw")
	assert.Equal(t, Msg("seed"), s.exec(gus, "GET 1 0 0").Msg)
	assert.Equal(t, Err(NoPerm), s.exec(gus, "INSERT 1 nope"))
	assert.Equal(t, Err(NoPerm), s.exec(gus, "DEL 1 0 0"))
	assert.Equal(t, Err(NoPerm), s.exec(gus, "GET 2 0 0"))

	require.Equal(t, Respond(OK), s.exec(root, "REVOKE alice 1"))
	alice = login(t, s, "alice", "pw")
	assert.Equal(t, Err(NoPerm), s.exec(alice, "GET 1 0 0"))
	assert.Equal(t, Respond("(empty)"), s.exec(alice, "LIST"))
}

func TestUserCommands(t *testing.T) {
	s := newTestServer(t)
	root := login(t, s, "root", "rootpw")

	assert.Equal(t, Respond(OK), s.exec(root, "CREATEUSER bob pw guest"))
	assert.Equal(t, Err("User already exists"), s.exec(root, "CREATEUSER bob pw guest"))
	assert.Equal(t, Err(`invalid role "admin"`), s.exec(root, "CREATEUSER eve pw admin"))
	assert.Equal(t, Err("Cannot delete the current user"), s.exec(root, "DELUSER root"))
	assert.Equal(t, Respond(OK), s.exec(root, "DELUSER bob"))

	resp := s.exec(root, "DELUSER bob")
	assert.Equal(t, "ERR: bob: "+auth.ErrUserNotFound.Error(), string(resp.Msg))

	bob := newSession()
	assert.Equal(t, Err(Msg(auth.ErrInvalidCredentials.Error())), s.exec(bob, "AUTH bob pw"))
}

func TestDropContainer(t *testing.T) {
	s := newTestServer(t)
	root := login(t, s, "root", "rootpw")

	require.Equal(t, Respond(OK), s.exec(root, "CREATE 4"))
	assert.Equal(t, Respond(OK), s.exec(root, "DROP 4"))
	assert.True(t, strings.HasPrefix(string(s.exec(root, "DROP 4").Msg), "ERR: "))
	assert.Equal(t, Respond("(empty)"), s.exec(root, "LIST"))
}

func TestCommitStartsNewTransaction(t *testing.T) {
	s := newTestServer(t)
	sess := login(t, s, "root", "rootpw")

	before := sess.tid
	assert.Equal(t, Respond(OK), s.exec(sess, "COMMIT"))
	assert.NotEqual(t, before, sess.tid)
}

func TestServeOverTCP(t *testing.T) {
	s := newTestServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	r := bufio.NewReader(conn)
	send := func(line string) string {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		out, err := r.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimSuffix(strings.TrimPrefix(out, string(Prompt)), "\n")
	}

	assert.Equal(t, "OK", send("AUTH root rootpw"))
	assert.Equal(t, "OK", send("CREATE 7"))
	assert.Equal(t, "7 0 0", send("INSERT 7 over the wire"))
	assert.Equal(t, "over the wire", send("GET 7 0 0"))
	assert.Equal(t, "Bye", send("EXIT"))

	s.Close()
	require.NoError(t, <-done)
}

func TestValuesKeepTheirWhitespace(t *testing.T) {
	s := newTestServer(t)
	sess := login(t, s, "root", "rootpw")
	require.Equal(t, Respond(OK), s.exec(sess, "CREATE 1"))

	assert.Equal(t, Msg("1 0 0"), s.exec(sess, "INSERT 1  two  spaces\tand tab ").Msg)
	assert.Equal(t, Msg(" two  spaces\tand tab "), s.exec(sess, "GET 1 0 0").Msg)

	assert.Equal(t, Msg("1 0 0"), s.exec(sess, "UPDATE\t1 0   0 a\t b").Msg)
	assert.Equal(t, Msg("a\t b"), s.exec(sess, "GET 1 0 0").Msg)
}

func TestRemainder(t *testing.T) {
	assert.Equal(t, "b  c", remainder("a b  c", 1))
	assert.Equal(t, " c ", remainder("  a\tb  c ", 2))
	assert.Equal(t, "", remainder("a b", 2))
	assert.Equal(t, "", remainder("a", 1))
}
