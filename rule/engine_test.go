/*
 * Copyright 2025 The DocFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package rule

import (
	"testing"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/test/assert"
)

func newTestEngine() *Engine {
	return NewEngine(types.NewConfig(types.WithLogger(types.DiscardLogger())))
}

func TestEvalBoolExpression(t *testing.T) {
	engine := newTestEngine()
	workitem := document.New().
		WithItem("a", 1).
		WithItem("b", "DE")

	ok, err := engine.EvalBool(`a == 1 && b == "DE"`, workitem, nil)
	assert.Nil(t, err)
	assert.True(t, ok)

	_ = workitem.SetItemValue("b", "I")
	ok, err = engine.EvalBool(`a == 1 && b == "DE"`, workitem, nil)
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestEvalBoolExpressionError(t *testing.T) {
	engine := newTestEngine()
	workitem := document.New().WithItem("a", 1)

	_, err := engine.EvalBool(`a ==`, workitem, nil)
	assert.NotNil(t, err)
	pluginErr, ok := err.(*types.PluginError)
	assert.True(t, ok)
	assert.Equal(t, types.CodeRuleError, pluginErr.Code)
}

func TestEvalBoolScript(t *testing.T) {
	engine := newTestEngine()
	workitem := document.New().WithItem("budget", 500.0)

	ok, err := engine.EvalBool(`workitem.getItemValueDouble('budget') > 100`, workitem, nil)
	assert.Nil(t, err)
	assert.True(t, ok)
}

func TestRunScriptMergesResult(t *testing.T) {
	engine := newTestEngine()
	workitem := document.New().WithItem("amount", 250.0)
	event := document.New().WithItem("txtname", "approve")

	script := `
		result.level = 'manager';
		result.approved = workitem.getItemValueDouble('amount') < 1000;
		result.eventname = event.getItemValueString('txtname');
	`
	_, err := engine.RunScript(script, workitem, event)
	assert.Nil(t, err)
	assert.Equal(t, "manager", workitem.GetItemValueString("level"))
	assert.True(t, workitem.GetItemValueBoolean("approved"))
	assert.Equal(t, "approve", workitem.GetItemValueString("eventname"))
}

func TestRunScriptError(t *testing.T) {
	engine := newTestEngine()
	workitem := document.New()

	_, err := engine.RunScript(`this is no javascript`, workitem, nil)
	assert.NotNil(t, err)
	pluginErr, ok := err.(*types.PluginError)
	assert.True(t, ok)
	assert.Equal(t, types.CodeRuleError, pluginErr.Code)
}

func TestIsDeprecatedScript(t *testing.T) {
	assert.True(t, IsDeprecatedScript("// graalvm.languageId=nashorn\nvar a=1;"))
	assert.False(t, IsDeprecatedScript("// graalvm.languageId=js\nvar a=1;"))
	assert.True(t, IsDeprecatedScript("var x = workitem.get('txtname');"))
	assert.False(t, IsDeprecatedScript("var x = workitem.getItemValueString('txtname');"))
	assert.False(t, IsDeprecatedScript("if (workitem.hasItem('a')) {}"))
	assert.True(t, IsDeprecatedScript("var x = workitem.txtname[0];"))
	assert.True(t, IsDeprecatedScript("var x = workitem['space.team'][0];"))
	assert.False(t, IsDeprecatedScript("var a = 1 + 2;"))
}

func TestRewriteDeprecatedScript(t *testing.T) {
	workitem := document.New().
		WithItem("txtname", "anna").
		WithItem("budget", 500.0)

	script := "var a = workitem.txtname[0]; var b = workitem.budget[0];"
	rewritten := RewriteDeprecatedScript(script, workitem, nil, types.DiscardLogger())

	assert.Equal(t,
		"var a = workitem.getItemValueString('txtname'); var b = workitem.getItemValueDouble('budget');",
		rewritten)
	assert.False(t, IsDeprecatedScript(rewritten))
}

func TestRewriteSortsItemNamesByLength(t *testing.T) {
	// 条目名互为前缀时长名优先
	workitem := document.New().
		WithItem("team", "core").
		WithItem("teamlead", "anna")

	script := "var a = workitem.teamlead[0]; var b = workitem.team[0];"
	rewritten := RewriteDeprecatedScript(script, workitem, nil, types.DiscardLogger())
	assert.Equal(t,
		"var a = workitem.getItemValueString('teamlead'); var b = workitem.getItemValueString('team');",
		rewritten)
}

func TestRewriteKeepsBooleanSemantics(t *testing.T) {
	engine := newTestEngine()
	workitem := document.New().WithItem("budget", 500.0)

	deprecated := "workitem.budget[0] > 100"
	assert.True(t, IsDeprecatedScript(deprecated))

	rewritten := RewriteDeprecatedScript(deprecated, workitem, nil, types.DiscardLogger())
	assert.False(t, IsDeprecatedScript(rewritten))

	before, err := engine.EvalBool(deprecated, workitem, nil)
	assert.Nil(t, err)
	after, err := engine.EvalBool(rewritten, workitem, nil)
	assert.Nil(t, err)
	assert.Equal(t, before, after)
}
