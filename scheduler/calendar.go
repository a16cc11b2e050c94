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
	"strconv"
	"strings"
	"time"

	"github.com/rulego/docflow/api/types"
)

// CalendarExpression is the parsed form of a scheduler definition. The text
// format is a key=value list separated by newlines or semicolons with the
// keys second, minute, hour, dayOfWeek, dayOfMonth, month, year, timezone,
// start and end. The parser is whitespace tolerant; unknown keys are
// ignored.
type CalendarExpression struct {
	Second     string
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string
	// Year 按触发时刻过滤，cron本身不支持年字段
	Year     string
	Timezone string
	Start    time.Time
	End      time.Time
}

// ParseCalendarExpression 解析日历表达式
func ParseCalendarExpression(definition string) (*CalendarExpression, error) {
	expression := &CalendarExpression{
		Second:     "0",
		Minute:     "*",
		Hour:       "*",
		DayOfMonth: "*",
		Month:      "*",
		DayOfWeek:  "*",
	}
	if strings.TrimSpace(definition) == "" {
		return nil, types.NewSchedulerError(types.CodeInvalidDefinition, "scheduler definition is empty")
	}
	lines := strings.FieldsFunc(definition, func(r rune) bool {
		return r == '\n' || r == ';'
	})
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, types.NewSchedulerError(types.CodeInvalidDefinition,
				"invalid calendar entry '"+line+"'")
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		switch strings.ToLower(key) {
		case "second":
			expression.Second = value
		case "minute":
			expression.Minute = value
		case "hour":
			expression.Hour = value
		case "dayofmonth":
			expression.DayOfMonth = value
		case "month":
			expression.Month = value
		case "dayofweek":
			expression.DayOfWeek = value
		case "year":
			expression.Year = value
		case "timezone":
			expression.Timezone = value
		case "start":
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, types.NewSchedulerError(types.CodeInvalidDefinition,
					"invalid start timestamp '"+value+"'")
			}
			expression.Start = t
		case "end":
			t, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, types.NewSchedulerError(types.CodeInvalidDefinition,
					"invalid end timestamp '"+value+"'")
			}
			expression.End = t
		default:
			// 未知键忽略
		}
	}
	return expression, nil
}

// CronSpec renders the expression as a six field cron spec with an optional
// timezone prefix.
func (c *CalendarExpression) CronSpec() string {
	spec := strings.Join([]string{c.Second, c.Minute, c.Hour, c.DayOfMonth, c.Month, c.DayOfWeek}, " ")
	if c.Timezone != "" {
		spec = "CRON_TZ=" + c.Timezone + " " + spec
	}
	return spec
}

// InWindow reports whether a firing at the given instant lies inside the
// year filter and the start/end bounds.
func (c *CalendarExpression) InWindow(now time.Time) bool {
	if c.Year != "" && c.Year != "*" {
		if y, err := strconv.Atoi(c.Year); err == nil && now.Year() != y {
			return false
		}
	}
	if !c.Start.IsZero() && now.Before(c.Start) {
		return false
	}
	if !c.End.IsZero() && now.After(c.End) {
		return false
	}
	return true
}
