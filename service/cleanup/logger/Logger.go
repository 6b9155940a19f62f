// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	jobTypeKey contextKey = "jobType"
	jobIdKey   contextKey = "jobId"
)

// WithJob marks ctx so every message logged through this package carries the job name and run id.
func WithJob(ctx context.Context, jobType string, jobId string) context.Context {
	ctx = context.WithValue(ctx, jobTypeKey, jobType)
	return context.WithValue(ctx, jobIdKey, jobId)
}

func JobId(ctx context.Context) string {
	if jobId, ok := ctx.Value(jobIdKey).(string); ok {
		return jobId
	}
	return ""
}

func entry(ctx context.Context) *log.Entry {
	jobType, _ := ctx.Value(jobTypeKey).(string)
	jobId, _ := ctx.Value(jobIdKey).(string)
	if jobType == "" || jobId == "" {
		return log.NewEntry(log.StandardLogger())
	}
	return log.WithField("prefix", fmt.Sprintf("%s id=%s", jobType, jobId))
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Debugf(format, args...)
}

func Debug(ctx context.Context, args ...interface{}) {
	entry(ctx).Debug(args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Infof(format, args...)
}

func Info(ctx context.Context, args ...interface{}) {
	entry(ctx).Info(args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Warnf(format, args...)
}

func Warn(ctx context.Context, args ...interface{}) {
	entry(ctx).Warn(args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Errorf(format, args...)
}

func Error(ctx context.Context, args ...interface{}) {
	entry(ctx).Error(args...)
}

func Tracef(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Tracef(format, args...)
}
