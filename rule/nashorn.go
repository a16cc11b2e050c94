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
	"regexp"
	"sort"
	"strings"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// 废弃的Nashorn时代脚本通过裸属性和下标访问工作项，例如
// workitem.txtname[0] 或者 workitem['txtname']。重写器把这些访问改写成
// 规范的类型化访问器。

var bracketAccessRegex = regexp.MustCompile(`workitem\['[._\w]+'\]`)

// IsDeprecatedScript reports whether the script was written for the legacy
// Nashorn engine and needs the accessor rewrite.
func IsDeprecatedScript(script string) bool {
	if strings.Contains(script, "graalvm.languageId=nashorn") {
		return true
	}
	// 其他languageId默认按新方言处理
	if strings.Contains(script, "graalvm.languageId=") {
		return false
	}
	// workitem.get( 形式只存在于废弃脚本
	if strings.Contains(script, "workitem.get(") || strings.Contains(script, "event.get(") {
		return true
	}
	// 其余getter方法属于新方言
	if strings.Contains(script, "workitem.get") || strings.Contains(script, "event.get") {
		return false
	}
	if strings.Contains(script, "workitem.hasItem") || strings.Contains(script, "workitem.isItem") {
		return false
	}
	// 裸属性访问指向废弃脚本
	if strings.Contains(script, "workitem.") || strings.Contains(script, "event.") {
		return true
	}
	// workitem['space.team'] 形式的下标访问
	return bracketAccessRegex.MatchString(script)
}

// RewriteDeprecatedScript converts a deprecated Nashorn script into the
// canonical accessor dialect. Numeric items map to typed double accessors,
// everything else to typed string accessors; bare existence checks map to
// hasItem. The rewritten script is logged so model authors can replace the
// stored script.
func RewriteDeprecatedScript(script string, workitem, event *document.ItemCollection, logger types.Logger) string {
	original := script
	script = rewriteByContext(script, workitem, "workitem")
	script = rewriteByContext(script, event, "event")
	// 重写之后可能残留 getItemValueString(x)[0] 形式的下标
	script = strings.ReplaceAll(script, ")[0]", ")")
	if logger != nil {
		logger.Printf("deprecated rule script rewritten:\n--- old ---\n%s\n--- new ---\n%s", original, script)
	}
	return script
}

// rewriteByContext rewrites the accesses of one context object. Item names
// are processed longest first, so an item whose name prefixes another
// (team, team$approvers) is never clipped by the shorter name.
func rewriteByContext(script string, context *document.ItemCollection, contextName string) string {
	if context == nil || contextName == "" {
		return script
	}
	itemNames := context.GetItemNames()
	sort.Slice(itemNames, func(i, j int) bool {
		return len(itemNames[i]) > len(itemNames[j])
	})

	for _, itemName := range itemNames {
		accessor := contextName + ".getItemValueString('" + itemName + "')"
		if context.IsItemValueNumeric(itemName) {
			accessor = contextName + ".getItemValueDouble('" + itemName + "')"
		}

		// workitem.txtname[0] => 类型化访问器
		script = strings.ReplaceAll(script, contextName+"."+itemName+"[0]", accessor)
		// workitem['txtname'][0] => 类型化访问器
		script = strings.ReplaceAll(script, contextName+"['"+itemName+"'][0]", accessor)
		// workitem.txtname => 存在性检查
		script = strings.ReplaceAll(script, contextName+"."+itemName, contextName+".hasItem('"+itemName+"')")
		// workitem['txtname'] => 存在性检查
		script = strings.ReplaceAll(script, contextName+"['"+itemName+"']", contextName+".hasItem('"+itemName+"')")
	}

	// workitem.get( => 类型化访问器
	script = strings.ReplaceAll(script, contextName+".get(", contextName+".getItemValueString(")
	return script
}
