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

package store

import (
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// Memory 内存文档存储
// Documents are deep-copied on save and load, so callers never share
// structure with the stored graph. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*document.ItemCollection
}

var _ types.DocumentStore = (*Memory)(nil)

// NewMemory 创建内存存储
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*document.ItemCollection)}
}

// Save 保存文档，补写 $uniqueid/$created/$modified
func (s *Memory) Save(doc *document.ItemCollection) (*document.ItemCollection, error) {
	stored := stamp(doc.Clone())
	s.mu.Lock()
	s.docs[stored.GetUniqueID()] = stored
	s.mu.Unlock()
	return stored.Clone(), nil
}

// Load 按ID加载文档，未找到返回nil
func (s *Memory) Load(id string) (*document.ItemCollection, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

// Find 按查询语句分页查找
func (s *Memory) Find(query string, pageSize int, pageIndex int) ([]*document.ItemCollection, error) {
	predicate, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	var matched []*document.ItemCollection
	for _, doc := range s.docs {
		if predicate(doc) {
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()
	sortByCreation(matched)
	return clonePage(matched, pageSize, pageIndex), nil
}

// GetDocumentsByType 按类型查找
func (s *Memory) GetDocumentsByType(docType string) ([]*document.ItemCollection, error) {
	s.mu.RLock()
	var matched []*document.ItemCollection
	for _, doc := range s.docs {
		if doc.GetType() == docType {
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()
	sortByCreation(matched)
	result := make([]*document.ItemCollection, len(matched))
	for i, doc := range matched {
		result[i] = doc.Clone()
	}
	return result, nil
}

// Delete 按ID删除文档
func (s *Memory) Delete(id string) {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
}

// stamp 补写存储维护的保留条目
func stamp(doc *document.ItemCollection) *document.ItemCollection {
	now := time.Now()
	if doc.GetUniqueID() == "" {
		id, _ := uuid.NewV4()
		doc.WithUniqueID(id.String())
	}
	if _, ok := doc.GetItemValueDate(document.ItemCreated); !ok {
		_ = doc.SetItemValue(document.ItemCreated, now)
	}
	_ = doc.SetItemValue(document.ItemModified, now)
	return doc
}

// sortByCreation 按创建时间、ID稳定排序，保证分页确定性
func sortByCreation(docs []*document.ItemCollection) {
	sort.SliceStable(docs, func(i, j int) bool {
		ti, _ := docs[i].GetItemValueDate(document.ItemCreated)
		tj, _ := docs[j].GetItemValueDate(document.ItemCreated)
		if ti.Equal(tj) {
			return docs[i].GetUniqueID() < docs[j].GetUniqueID()
		}
		return ti.Before(tj)
	})
}

func clonePage(docs []*document.ItemCollection, pageSize, pageIndex int) []*document.ItemCollection {
	if pageSize <= 0 {
		pageSize = len(docs)
	}
	start := pageIndex * pageSize
	if start >= len(docs) {
		return nil
	}
	end := start + pageSize
	if end > len(docs) {
		end = len(docs)
	}
	result := make([]*document.ItemCollection, 0, end-start)
	for _, doc := range docs[start:end] {
		result = append(result, doc.Clone())
	}
	return result
}
