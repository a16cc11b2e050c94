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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rulego/docflow/api/types"
	"github.com/rulego/docflow/document"
)

// SqlConfiguration SQL存储配置
type SqlConfiguration struct {
	// DriverName 数据库驱动名称，mysql或postgres
	DriverName string
	// Dsn 数据库连接配置，参考sql.Open参数
	Dsn string
	// PoolSize 连接池大小
	PoolSize int
}

// Sql SQL文档存储
// One row per document in the documents table; the value graph is stored as
// the typed envelope in the data column. Queries narrow the scan by the
// type column when the search DSL names one, the rest of the predicate runs
// in process.
type Sql struct {
	config SqlConfiguration
	db     *sql.DB
}

var _ types.DocumentStore = (*Sql)(nil)

// NewSql 创建SQL存储并建表
func NewSql(config SqlConfiguration) (*Sql, error) {
	if config.DriverName != "mysql" && config.DriverName != "postgres" {
		return nil, errors.New("unsupported driver name: " + config.DriverName)
	}
	db, err := sql.Open(config.DriverName, config.Dsn)
	if err != nil {
		return nil, err
	}
	if config.PoolSize > 0 {
		db.SetMaxOpenConns(config.PoolSize)
	}
	s := &Sql{config: config, db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close 关闭连接池
func (s *Sql) Close() error {
	return s.db.Close()
}

func (s *Sql) createTable() error {
	ddl := `CREATE TABLE IF NOT EXISTS documents (
		id VARCHAR(64) PRIMARY KEY,
		doctype VARCHAR(128),
		data TEXT
	)`
	if s.config.DriverName == "mysql" {
		ddl = `CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(64) PRIMARY KEY,
			doctype VARCHAR(128),
			data MEDIUMTEXT
		)`
	}
	_, err := s.db.Exec(ddl)
	return err
}

// placeholder 按方言生成参数占位符
func (s *Sql) placeholder(n int) string {
	if s.config.DriverName == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Save 保存文档，补写 $uniqueid/$created/$modified
func (s *Sql) Save(doc *document.ItemCollection) (*document.ItemCollection, error) {
	stored := stamp(doc.Clone())
	data, err := document.Marshal(stored)
	if err != nil {
		return nil, err
	}
	var upsert string
	if s.config.DriverName == "postgres" {
		upsert = `INSERT INTO documents (id, doctype, data) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET doctype = EXCLUDED.doctype, data = EXCLUDED.data`
	} else {
		upsert = `INSERT INTO documents (id, doctype, data) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE doctype = VALUES(doctype), data = VALUES(data)`
	}
	if _, err := s.db.Exec(upsert, stored.GetUniqueID(), stored.GetType(), string(data)); err != nil {
		return nil, err
	}
	return stored, nil
}

// Load 按ID加载文档，未找到返回nil
func (s *Sql) Load(id string) (*document.ItemCollection, error) {
	var data string
	query := "SELECT data FROM documents WHERE id = " + s.placeholder(1)
	err := s.db.QueryRow(query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return document.Unmarshal([]byte(data))
}

// Find 按查询语句分页查找
func (s *Sql) Find(query string, pageSize int, pageIndex int) ([]*document.ItemCollection, error) {
	predicate, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	matched, err := s.scan(queryTypeHint(query), predicate)
	if err != nil {
		return nil, err
	}
	sortByCreation(matched)
	return clonePage(matched, pageSize, pageIndex), nil
}

// GetDocumentsByType 按类型查找
func (s *Sql) GetDocumentsByType(docType string) ([]*document.ItemCollection, error) {
	matched, err := s.scan(docType, func(*document.ItemCollection) bool { return true })
	if err != nil {
		return nil, err
	}
	sortByCreation(matched)
	return matched, nil
}

// Delete 按ID删除文档
func (s *Sql) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM documents WHERE id = "+s.placeholder(1), id)
	return err
}

// scan 按可选的类型提示读取行并应用谓词
func (s *Sql) scan(typeHint string, predicate Predicate) ([]*document.ItemCollection, error) {
	query := "SELECT data FROM documents"
	var args []interface{}
	if strings.TrimSpace(typeHint) != "" {
		query += " WHERE doctype = " + s.placeholder(1)
		args = append(args, typeHint)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*document.ItemCollection
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		doc, err := document.Unmarshal([]byte(data))
		if err != nil {
			return nil, err
		}
		if predicate(doc) {
			matched = append(matched, doc)
		}
	}
	return matched, rows.Err()
}
