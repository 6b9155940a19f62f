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

package cleanup

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupJobTimeout = 24 * time.Hour
	cleanupJobTimeoutBuffer  = 5 * time.Minute
)

type CleanupService interface {
	AddJob(runner *JobRunner, schedule string) error
	RunNow(name string) error
	JobNames() []string
	Start()
	Stop() context.Context
}

func NewCleanupService() CleanupService {
	return &cleanupServiceImpl{
		cron: cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.StandardLogger())))),
		jobs: map[string]cron.Job{},
	}
}

type cleanupServiceImpl struct {
	cron  *cron.Cron
	mutex sync.Mutex
	jobs  map[string]cron.Job
}

// AddJob schedules runner. A job without an own timeout is bounded by the gap to its next
// scheduled run. An empty schedule registers the job for manual runs only.
func (c *cleanupServiceImpl) AddJob(runner *JobRunner, schedule string) error {
	if runner.config.timeout == 0 && schedule != "" {
		runner.config.timeout = calculateCleanupJobTimeout(schedule, runner.config.jobType)
	}
	// cron and RunNow share the wrapped job, so a run never overlaps the previous one
	job := cron.NewChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))).Then(runner)

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.jobs[runner.Name()]; exists {
		return fmt.Errorf("%s job is already registered", runner.Name())
	}
	if schedule != "" {
		if _, err := c.cron.AddJob(schedule, job); err != nil {
			log.Warnf("%s job wasn't added for schedule - %s. With error - %s", runner.Name(), schedule, err)
			return err
		}
		log.Infof("%s job was created with schedule - %s", runner.Name(), schedule)
	} else {
		log.Infof("%s job was registered without schedule", runner.Name())
	}
	c.jobs[runner.Name()] = job
	return nil
}

func (c *cleanupServiceImpl) RunNow(name string) error {
	c.mutex.Lock()
	job, exists := c.jobs[name]
	c.mutex.Unlock()
	if !exists {
		return fmt.Errorf("unknown cleanup job: %s", name)
	}
	utils.SafeAsync(job.Run)
	return nil
}

func (c *cleanupServiceImpl) JobNames() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	names := make([]string, 0, len(c.jobs))
	for name := range c.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *cleanupServiceImpl) Start() {
	c.cron.Start()
}

// Stop stops scheduling and returns a context that is done once running jobs completed.
func (c *cleanupServiceImpl) Stop() context.Context {
	return c.cron.Stop()
}

func calculateCleanupJobTimeout(schedule string, jobType jobType) time.Duration {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Warnf("Failed to parse cron schedule '%s' for %s job: %v. Using default timeout.", schedule, jobType, err)
		return defaultCleanupJobTimeout
	}

	now := time.Now()
	next1 := sched.Next(now)
	next2 := sched.Next(next1)

	interval := next2.Sub(next1)
	if interval <= cleanupJobTimeoutBuffer {
		timeout := time.Duration(float64(interval) * 0.9)
		log.Warnf("Calculated interval from cron schedule '%s' for %s job is very short: %v. Using %v as timeout.",
			schedule, jobType, interval, timeout)
		return timeout
	}

	timeout := interval - cleanupJobTimeoutBuffer
	log.Infof("Calculated job timeout for %s job with schedule '%s': %v (interval: %v)",
		jobType, schedule, timeout, interval)
	return timeout
}
