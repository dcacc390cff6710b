package reconcile

import (
	"context"
	"fmt"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// NewWorker registers the workflow and activities on taskQueue.
func NewWorker(c client.Client, taskQueue string, acts *Activities) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{
		Identity:                           "reconcile-worker-" + hostname(),
		MaxConcurrentActivityExecutionSize: 10,
	})
	w.RegisterWorkflow(ReconcilePendingOrders)
	w.RegisterActivity(acts)
	return w
}

// Start schedules the workflow. With a cron schedule Temporal reruns it on
// every tick; an empty schedule runs it once.
func Start(ctx context.Context, c client.Client, taskQueue, schedule string, in Input) (client.WorkflowRun, error) {
	opts := client.StartWorkflowOptions{
		ID:           WorkflowID,
		TaskQueue:    taskQueue,
		CronSchedule: schedule,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, ReconcilePendingOrders, in)
	if err != nil {
		return nil, fmt.Errorf("start reconcile workflow: %w", err)
	}
	return run, nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
