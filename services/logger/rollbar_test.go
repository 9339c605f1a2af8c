package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xJayOnchain/academic-chain/core"
)

func newTestLogger() (*RollbarLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	conf := &core.Config{Env: "TEST", Build: "test"}
	l := NewRollbarLogger(log.New(&buf, "", 0), conf)
	l.Enable(false)
	return l, &buf
}

func TestRollbarLogger_prepare(t *testing.T) {
	l, _ := newTestLogger()
	err := errors.New("boom")
	extra := map[string]interface{}{"id": 1}

	args := l.prepare("msg", []interface{}{err, core.Operator{Username: "admin"}, extra, core.Operator{Username: "other"}})
	assert.Equal(t, []interface{}{"msg", err, extra}, args)
}

func TestRollbarLogger_print(t *testing.T) {
	l, buf := newTestLogger()
	l.Warn("reading GPA", errors.New("execution reverted"), core.Operator{})
	assert.Equal(t, "reading GPA\nexecution reverted\n", buf.String())
}
