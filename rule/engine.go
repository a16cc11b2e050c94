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

// Package rule evaluates the scripts and boolean expressions embedded in
// BPMN models against a (workitem, event) context. Plain expressions run on
// the expr compiler, JavaScript rule scripts run on goja. Deprecated Nashorn
// era scripts are rewritten into the canonical typed accessor form before
// compilation.
//
// Package rule 针对 (workitem, event) 上下文求值模型内嵌的脚本和布尔表达式。
package rule

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/utils/js"
)

// Engine 规则引擎
type Engine struct {
	config types.Config
}

// NewEngine 创建规则引擎
func NewEngine(config types.Config) *Engine {
	return &Engine{config: config}
}

// scriptContext is the host object handed to rule scripts as `workitem` and
// `event`. Method names reach the script uncapitalized, e.g.
// workitem.getItemValueString('name').
type scriptContext struct {
	ic *document.ItemCollection
}

func (s *scriptContext) GetItemValueString(name string) string {
	return s.ic.GetItemValueString(name)
}

func (s *scriptContext) GetItemValueInteger(name string) int {
	return s.ic.GetItemValueInteger(name)
}

func (s *scriptContext) GetItemValueDouble(name string) float64 {
	return s.ic.GetItemValueDouble(name)
}

func (s *scriptContext) GetItemValueBoolean(name string) bool {
	return s.ic.GetItemValueBoolean(name)
}

func (s *scriptContext) GetItemValue(name string) []interface{} {
	return s.ic.GetItemValue(name)
}

func (s *scriptContext) HasItem(name string) bool {
	return s.ic.HasItem(name)
}

func (s *scriptContext) IsItem(name string) bool {
	return s.ic.HasItem(name)
}

// IsScript reports whether the source should run on the JavaScript engine
// instead of the expression compiler. Model authors either reference the
// workitem/event host objects or declare a language id.
func IsScript(source string) bool {
	return IsDeprecatedScript(source) ||
		containsAny(source, "workitem.", "event.", "result.", "graalvm.languageId=")
}

// EvalBool evaluates a gateway edge condition. Plain expressions see the
// workitem items as top level variables plus the `workitem` and `event`
// maps; scripts see the host objects.
func (e *Engine) EvalBool(condition string, workitem, event *document.ItemCollection) (bool, error) {
	if IsScript(condition) {
		out, err := e.runJs(condition, workitem, event, nil)
		if err != nil {
			return false, err
		}
		b, ok := out.(bool)
		if !ok {
			return false, types.NewRuleError("rule", fmt.Errorf("condition returned no boolean: %v", out))
		}
		return b, nil
	}

	env := workitem.ScalarMap()
	env["workitem"] = workitem.ScalarMap()
	if event != nil {
		env["event"] = event.ScalarMap()
	}
	program, err := expr.Compile(condition, expr.AllowUndefinedVariables())
	if err != nil {
		return false, types.NewRuleError("rule", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, types.NewRuleError("rule", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, types.NewRuleError("rule", fmt.Errorf("condition returned no boolean: %v", out))
	}
	return b, nil
}

// RunScript executes a rule script. The script mutates a `result` bag whose
// items are merged back onto the workitem on return.
func (e *Engine) RunScript(script string, workitem, event *document.ItemCollection) (*document.ItemCollection, error) {
	result := make(map[string]interface{})
	if _, err := e.runJs(script, workitem, event, result); err != nil {
		return nil, err
	}
	for name, value := range result {
		if err := workitem.SetItemValue(name, value); err != nil {
			return nil, types.NewRuleError("rule", err)
		}
	}
	return workitem, nil
}

// runJs 在goja上执行脚本，废弃脚本先重写
func (e *Engine) runJs(script string, workitem, event *document.ItemCollection, result map[string]interface{}) (interface{}, error) {
	if IsDeprecatedScript(script) {
		script = RewriteDeprecatedScript(script, workitem, event, e.config.Logger)
	}
	vars := map[string]interface{}{
		"workitem": &scriptContext{ic: workitem},
	}
	if event != nil {
		vars["event"] = &scriptContext{ic: event}
	}
	if result != nil {
		vars["result"] = result
	}
	engine := js.NewGojaEngine(e.config.ScriptMaxExecutionTime)
	out, err := engine.Run(script, vars)
	if err != nil {
		return nil, types.NewRuleError("rule", err)
	}
	return out, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
