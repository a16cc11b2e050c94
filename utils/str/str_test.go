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

package str

import (
	"testing"

	"github.com/rulego/docflow/test/assert"
)

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Unique([]string{"a", "b", "a", "", "b"}))
	assert.Equal(t, 0, len(Unique(nil)))
}

func TestParseInlineList(t *testing.T) {
	list, ok := ParseInlineList("[a, b ,c]")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, list)

	list, ok = ParseInlineList("{x,'y'}")
	assert.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, list)

	list, ok = ParseInlineList("[]")
	assert.True(t, ok)
	assert.Equal(t, 0, len(list))

	_, ok = ParseInlineList("plainfield")
	assert.False(t, ok)
	_, ok = ParseInlineList("")
	assert.False(t, ok)
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "a", TrimQuotes(`"a"`))
	assert.Equal(t, "a", TrimQuotes("'a'"))
	assert.Equal(t, `"a`, TrimQuotes(`"a`))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty("  "))
	assert.False(t, IsEmpty("x"))
}
