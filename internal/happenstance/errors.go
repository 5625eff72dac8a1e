package happenstance

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConfigured = errors.New("llm api key not configured")
	ErrNoSkillTags   = errors.New("no skill tag block found")
)

// User-visible messages.
const (
	MessageMethodNotAllowed = "Method not allowed"
	MessageInvalidInput     = "이벤트 데이터가 필요합니다."
	MessageNotConfigured    = "ANTHROPIC_API_KEY가 설정되지 않았습니다."
	MessageAnalysisFailed   = "분석 중 오류가 발생했습니다."
)

const defaultCredentialName = "ANTHROPIC_API_KEY"

// NotConfiguredMessage names the missing credential in the configuration
// error shown to callers.
func NotConfiguredMessage(credential string) string {
	credential = strings.TrimSpace(credential)
	if credential == "" || credential == defaultCredentialName {
		return MessageNotConfigured
	}
	return credential + "가 설정되지 않았습니다."
}

// TransportError wraps a failure of the outbound call that produced no
// upstream response (connection, DNS, timeout or body parse failures).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
