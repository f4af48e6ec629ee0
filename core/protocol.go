package core

import "fmt"

// Protocol rule identifiers reported in ProtocolViolation.Rule.
const (
	RuleRole             = "role"
	RuleEmptyTurn        = "empty-turn"
	RuleBlockRole        = "block-role"
	RuleFirstTurn        = "first-turn"
	RuleOrphanResponse   = "orphan-response"
	RuleResponseMismatch = "response-mismatch"
)

// CheckTurn validates that next may be appended after history under the chat
// protocol of the model backend. Only the last element of history is
// consulted. It returns a *ProtocolViolation describing the first broken rule.
//
// Strict user/model alternation is not required; consecutive turns of the
// same role are accepted.
func CheckTurn(history []Turn, next Turn) error {
	if !next.Role.Valid() {
		return &ProtocolViolation{Rule: RuleRole, Message: fmt.Sprintf("unknown role %q", next.Role)}
	}
	if len(next.Blocks) == 0 {
		return &ProtocolViolation{Rule: RuleEmptyTurn, Message: "turn has no parts"}
	}

	for _, b := range next.Blocks {
		switch blk := b.(type) {
		case FunctionCallBlock:
			if next.Role != RoleModel {
				return &ProtocolViolation{Rule: RuleBlockRole, Message: fmt.Sprintf("function call %q in %s turn", blk.Name, next.Role)}
			}
		case FunctionResponseBlock:
			if next.Role != RoleUser {
				return &ProtocolViolation{Rule: RuleBlockRole, Message: fmt.Sprintf("function response %q in %s turn", blk.Name, next.Role)}
			}
		case TextBlock, ThoughtBlock:
		}
	}

	if len(history) == 0 {
		if next.Role != RoleUser {
			return &ProtocolViolation{Rule: RuleFirstTurn, Message: "conversation must start with a user turn"}
		}
	}

	responses := next.FunctionResponses()
	if len(responses) == 0 {
		return nil
	}

	if len(history) == 0 || history[len(history)-1].Role != RoleModel {
		return &ProtocolViolation{Rule: RuleOrphanResponse, Message: "function response does not follow a model turn"}
	}

	calls := history[len(history)-1].FunctionCalls()
	if len(calls) == 0 {
		return &ProtocolViolation{Rule: RuleOrphanResponse, Message: "previous model turn requested no function calls"}
	}

	called := make(map[string]struct{}, len(calls))
	for _, c := range calls {
		called[c.Name] = struct{}{}
	}
	for _, r := range responses {
		if _, ok := called[r.Name]; !ok {
			return &ProtocolViolation{Rule: RuleResponseMismatch, Message: fmt.Sprintf("function response %q has no matching call", r.Name)}
		}
	}

	return nil
}
