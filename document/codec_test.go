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

package document

import (
	"testing"
	"time"

	"github.com/rulego/docflow/test/assert"
)

func TestStorageEnvelopeKeepsTypes(t *testing.T) {
	ic := New()
	_ = ic.SetItemValue("s", "text")
	_ = ic.SetItemValue("i", 7)
	_ = ic.SetItemValue("l", int64(1<<40))
	_ = ic.SetItemValue("d", 2.5)
	_ = ic.SetItemValue("b", true)
	_ = ic.SetItemValue("t", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	_ = ic.SetItemValue("x", []byte{0, 1, 2})
	_ = ic.SetItemValue("nested", map[string]interface{}{
		"inner": []interface{}{"a", 1},
	})

	data, err := Marshal(ic)
	assert.Nil(t, err)

	restored, err := Unmarshal(data)
	assert.Nil(t, err)
	assert.True(t, restored.Equals(ic), "restored document differs")

	// 类型保持，不退化成json泛型
	assert.Equal(t, int64(1<<40), restored.GetItemValue("l")[0])
	assert.Equal(t, 7, restored.GetItemValue("i")[0])
	assert.Equal(t, []byte{0, 1, 2}, restored.GetItemValue("x")[0])
}
