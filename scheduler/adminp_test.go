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

package scheduler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
	"github.com/rulego/docflow/store"
	"github.com/rulego/docflow/test/assert"
)

// recordingIndexer 记录索引文档的测试索引器
type recordingIndexer struct {
	indexed []string
	failFor string
}

func (i *recordingIndexer) UpdateIndex(doc *document.ItemCollection) error {
	if i.failFor != "" && doc.GetItemValueString("name") == i.failFor {
		return errors.New("index failure")
	}
	i.indexed = append(i.indexed, doc.GetItemValueString("name"))
	return nil
}

func seedWorkitems(t *testing.T, memory *store.Memory, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		doc := document.New().
			WithType("workitem").
			WithItem("name", fmt.Sprintf("doc-%02d", i))
		_, err := memory.Save(doc)
		assert.Nil(t, err)
	}
}

func TestRebuildIndexJobPagesInBlocks(t *testing.T) {
	memory := store.NewMemory()
	seedWorkitems(t, memory, 5)
	indexer := &recordingIndexer{}
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()))
	job := NewRebuildIndexJob(memory, indexer, config)

	jobDoc := document.New().
		WithType(types.DocTypeAdminJob).
		WithItem(ItemJobBlockSize, 2).
		WithItem(ItemEnabled, true)

	// 每次触发读取一个块，游标前移
	jobDoc, err := job.Run(jobDoc)
	assert.Nil(t, err)
	assert.Equal(t, 2, jobDoc.GetItemValueInteger(ItemJobProcessed))
	assert.Equal(t, 1, jobDoc.GetItemValueInteger(ItemJobIndex))
	assert.True(t, jobDoc.GetItemValueBoolean(ItemEnabled))

	jobDoc, err = job.Run(jobDoc)
	assert.Nil(t, err)
	assert.Equal(t, 4, jobDoc.GetItemValueInteger(ItemJobProcessed))

	// 短块表示完成，任务自行终止
	jobDoc, err = job.Run(jobDoc)
	assert.Nil(t, err)
	assert.Equal(t, 5, jobDoc.GetItemValueInteger(ItemJobProcessed))
	assert.False(t, jobDoc.GetItemValueBoolean(ItemEnabled))
	assert.Equal(t, 5, len(indexer.indexed))
}

func TestRebuildIndexJobContinuesOnDocumentError(t *testing.T) {
	memory := store.NewMemory()
	seedWorkitems(t, memory, 3)
	indexer := &recordingIndexer{failFor: "doc-01"}
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()))
	job := NewRebuildIndexJob(memory, indexer, config)

	jobDoc := document.New().
		WithType(types.DocTypeAdminJob).
		WithItem(ItemJobBlockSize, 10).
		WithItem(ItemEnabled, true)

	jobDoc, err := job.Run(jobDoc)
	assert.Nil(t, err)
	// 单个文档失败不中断，进度是成功指标
	assert.Equal(t, 2, jobDoc.GetItemValueInteger(ItemJobProcessed))
	assert.Equal(t, 2, len(indexer.indexed))
	assert.False(t, jobDoc.GetItemValueBoolean(ItemEnabled))
}
