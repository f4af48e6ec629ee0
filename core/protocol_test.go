package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTurn(t *testing.T) {
	call := FunctionCallBlock{Name: "flights_between"}
	resp := FunctionResponseBlock{Name: "flights_between"}
	other := FunctionResponseBlock{Name: "trains_between"}

	user := Turn{Role: RoleUser, Blocks: []Block{TextBlock{Text: "hi"}}}
	modelCall := Turn{Role: RoleModel, Blocks: []Block{call}}

	tests := []struct {
		name     string
		history  []Turn
		next     Turn
		wantRule string
	}{
		{"first user turn", nil, user, ""},
		{"first model turn", nil, NewModelText("hi"), RuleFirstTurn},
		{"unknown role", nil, Turn{Role: "tool"}, RuleRole},
		{"empty turn", []Turn{user}, Turn{Role: RoleUser}, RuleEmptyTurn},
		{"call in user turn", []Turn{user}, Turn{Role: RoleUser, Blocks: []Block{call}}, RuleBlockRole},
		{"response in model turn", []Turn{user, modelCall}, Turn{Role: RoleModel, Blocks: []Block{resp}}, RuleBlockRole},
		{"response after user", []Turn{user}, Turn{Role: RoleUser, Blocks: []Block{resp}}, RuleOrphanResponse},
		{"response after plain model", []Turn{user, NewModelText("ok")}, Turn{Role: RoleUser, Blocks: []Block{resp}}, RuleOrphanResponse},
		{"mismatched response", []Turn{user, modelCall}, Turn{Role: RoleUser, Blocks: []Block{other}}, RuleResponseMismatch},
		{"matched response", []Turn{user, modelCall}, Turn{Role: RoleUser, Blocks: []Block{resp}}, ""},
		{"consecutive user turns", []Turn{user}, user, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTurn(tt.history, tt.next)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			var pv *ProtocolViolation
			require.ErrorAs(t, err, &pv)
			assert.Equal(t, tt.wantRule, pv.Rule)
		})
	}
}
