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

func TestSetItemValueNormalization(t *testing.T) {
	ic := New()

	// 单值变成单元素列表
	assert.Nil(t, ic.SetItemValue("Name", "anna"))
	assert.Equal(t, []interface{}{"anna"}, ic.GetItemValue("name"))

	// 条目名大小写折叠
	assert.Equal(t, "anna", ic.GetItemValueString("NAME"))

	// 切片保持列表
	assert.Nil(t, ic.SetItemValue("team", []string{"joe", "sam"}))
	assert.Equal(t, []interface{}{"joe", "sam"}, ic.GetItemValue("team"))

	// 小整数种类放宽到int
	assert.Nil(t, ic.SetItemValue("count", int32(7)))
	assert.Equal(t, []interface{}{7}, ic.GetItemValue("count"))

	// nil删除条目
	assert.Nil(t, ic.SetItemValue("name", nil))
	assert.False(t, ic.HasItem("name"))
	assert.Equal(t, 0, len(ic.GetItemValue("name")))
}

func TestSetItemValueRejectsNonBasicTypes(t *testing.T) {
	ic := New()
	type custom struct{ X int }
	err := ic.SetItemValue("bad", custom{X: 1})
	assert.NotNil(t, err)
	assert.False(t, ic.HasItem("bad"))
}

func TestItemNameValidation(t *testing.T) {
	ic := New()
	assert.NotNil(t, ic.SetItemValue("  ", "x"))
}

func TestTypedAccessorsCoerce(t *testing.T) {
	ic := New()
	_ = ic.SetItemValue("a", "42")
	assert.Equal(t, 42, ic.GetItemValueInteger("a"))
	assert.Equal(t, int64(42), ic.GetItemValueLong("a"))
	assert.Equal(t, 42.0, ic.GetItemValueDouble("a"))

	_ = ic.SetItemValue("b", 1.5)
	assert.Equal(t, "1.5", ic.GetItemValueString("b"))

	_ = ic.SetItemValue("c", "true")
	assert.True(t, ic.GetItemValueBoolean("c"))

	// 空列表读取返回零值
	assert.Equal(t, 0, ic.GetItemValueInteger("missing"))
	assert.Equal(t, "", ic.GetItemValueString("missing"))
}

func TestTimestampNormalization(t *testing.T) {
	ic := New()
	now := time.Now()
	_ = ic.SetItemValue("when", now)
	stored, ok := ic.GetItemValueDate("when")
	assert.True(t, ok)
	// 单调时钟读数被剥离，时刻不变
	assert.True(t, stored.Equal(now))
}

func TestDeprecatedAliasMirroring(t *testing.T) {
	ic := New()

	ic.WithTaskID(100)
	assert.Equal(t, 100, ic.GetItemValueInteger("$processid"))

	_ = ic.SetItemValue("$processid", 200)
	assert.Equal(t, 200, ic.GetTaskID())

	ic.WithEventID(10)
	assert.Equal(t, 10, ic.GetItemValueInteger("$activityid"))

	_ = ic.SetItemValue("txtname", "invoice")
	assert.Equal(t, "invoice", ic.GetItemValueString("name"))

	_ = ic.SetItemValue(ItemOwner, "anna")
	assert.Equal(t, "anna", ic.GetItemValueString("namowner"))
}

func TestCloneIsDeep(t *testing.T) {
	ic := New()
	_ = ic.SetItemValue("nested", map[string]interface{}{
		"list": []interface{}{"a", "b"},
	})
	_ = ic.SetItemValue("bytes", []byte{1, 2, 3})

	clone := ic.Clone()
	assert.True(t, clone.Equals(ic))

	// 克隆上的嵌套修改不影响原件
	nested := clone.GetItemValue("nested")[0].(map[string]interface{})
	nested["list"].([]interface{})[0] = "changed"
	clone.GetItemValue("bytes")[0].([]byte)[0] = 9

	original := ic.GetItemValue("nested")[0].(map[string]interface{})
	assert.Equal(t, "a", original["list"].([]interface{})[0])
	assert.Equal(t, byte(1), ic.GetItemValue("bytes")[0].([]byte)[0])
	assert.False(t, clone.Equals(ic))
}

func TestAppendItemValue(t *testing.T) {
	ic := New()
	_ = ic.SetItemValue("log", "first")
	_ = ic.AppendItemValue("log", "second")
	assert.Equal(t, []string{"first", "second"}, ic.GetItemValueList("log"))
}

func TestCopyItems(t *testing.T) {
	source := New()
	_ = source.SetItemValue("a", 1)
	_ = source.SetItemValue("b", "x")

	target := New()
	target.CopyItems(source, "a")
	assert.Equal(t, 1, target.GetItemValueInteger("a"))
	assert.False(t, target.HasItem("b"))
}

func TestIsItemValueNumeric(t *testing.T) {
	ic := New()
	_ = ic.SetItemValue("n", 1.5)
	_ = ic.SetItemValue("s", "1.5")
	assert.True(t, ic.IsItemValueNumeric("n"))
	assert.False(t, ic.IsItemValueNumeric("s"))
}

func TestFileDataRoundTrip(t *testing.T) {
	ic := New()
	err := ic.AddFileData(FileData{
		Name:        "contract.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF"),
	})
	assert.Nil(t, err)

	file := ic.GetFileData("contract.pdf")
	assert.NotNil(t, file)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, []byte("%PDF"), file.Content)

	// 派生条目保持一致
	assert.Equal(t, 1, ic.GetItemValueInteger(ItemFileCount))
	assert.Equal(t, []string{"contract.pdf"}, ic.GetFileNames())

	// 同名覆盖而不是重复
	_ = ic.AddFileData(FileData{Name: "contract.pdf", ContentType: "text/plain", Content: []byte("x")})
	assert.Equal(t, 1, ic.GetItemValueInteger(ItemFileCount))
	assert.Equal(t, "text/plain", ic.GetFileData("contract.pdf").ContentType)

	ic.RemoveFile("contract.pdf")
	assert.Equal(t, 0, ic.GetItemValueInteger(ItemFileCount))
	assert.Nil(t, ic.GetFileData("contract.pdf"))
}
