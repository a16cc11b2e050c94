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
	"fmt"

	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// 管理任务条目名
const (
	ItemJobQuery     = "txtquery"
	ItemJobBlockSize = "numblocksize"
	ItemJobIndex     = "numindex"
	ItemJobProcessed = "numprocessed"
)

// Indexer consumes the stream of persisted documents. The full-text posting
// computation itself lives outside the engine.
type Indexer interface {
	//UpdateIndex 为单个文档重建索引
	UpdateIndex(doc *document.ItemCollection) error
}

// RebuildIndexJob feeds every stored document to the index writer in
// configurable blocks. The job persists its cursor in its own configuration
// document, continues on per-document errors and self-terminates when a
// block returns fewer rows than requested - its success metric is progress,
// not correctness of each document.
type RebuildIndexJob struct {
	store   types.DocumentStore
	indexer Indexer
	config  types.Config
}

var _ types.SchedulerJob = (*RebuildIndexJob)(nil)

// NewRebuildIndexJob 创建索引重建任务
func NewRebuildIndexJob(store types.DocumentStore, indexer Indexer, config types.Config) *RebuildIndexJob {
	return &RebuildIndexJob{store: store, indexer: indexer, config: config}
}

// Run processes one block per firing. The cursor advances even when single
// documents fail to index.
func (j *RebuildIndexJob) Run(job *document.ItemCollection) (*document.ItemCollection, error) {
	query := job.GetItemValueString(ItemJobQuery)
	if query == "" {
		query = `(type:"workitem")`
	}
	blockSize := job.GetItemValueInteger(ItemJobBlockSize)
	if blockSize <= 0 {
		blockSize = j.config.AdminJobBlockSize
	}
	pageIndex := job.GetItemValueInteger(ItemJobIndex)

	docs, err := j.store.Find(query, blockSize, pageIndex)
	if err != nil {
		return nil, types.NewSchedulerError(types.CodeProcessingError, err.Error())
	}

	processed := job.GetItemValueInteger(ItemJobProcessed)
	for _, doc := range docs {
		if indexErr := j.indexer.UpdateIndex(doc); indexErr != nil {
			// 单个文档失败只记录，不中断任务
			j.config.Logger.Printf("index rebuild: document '%s' failed: %v", doc.GetUniqueID(), indexErr)
			continue
		}
		processed++
	}

	_ = job.SetItemValue(ItemJobProcessed, processed)
	_ = job.SetItemValue(ItemJobIndex, pageIndex+1)

	if len(docs) < blockSize {
		// 读到短块，任务完成并自行终止
		_ = job.SetItemValue(ItemEnabled, false)
		appendLog(job, fmt.Sprintf("completed, %d documents indexed", processed))
	}
	return job, nil
}
