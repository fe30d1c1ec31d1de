package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

var (
	trainingStarted   atomic.Int64
	trainingSucceeded atomic.Int64
	trainingFailed    atomic.Int64
	trainingRejected  atomic.Int64
	trainingActive    atomic.Int64
	learningLoops     atomic.Int64
	chatMessages      atomic.Int64
	mediaRegistered   atomic.Int64
	workspacesCreated atomic.Int64
	backupsCompleted  atomic.Int64
	backupsFailed     atomic.Int64
	eventsAudited     atomic.Int64
	httpRequests      atomic.Int64
)

type metric struct {
	name  string
	help  string
	kind  string
	value *atomic.Int64
}

var registry = []metric{
	{"alpha_training_runs_started_total", "Training runs accepted.", "counter", &trainingStarted},
	{"alpha_training_runs_succeeded_total", "Training runs that reached in_use.", "counter", &trainingSucceeded},
	{"alpha_training_runs_failed_total", "Training runs that ended with an error.", "counter", &trainingFailed},
	{"alpha_training_runs_rejected_total", "Start requests rejected because a run was active.", "counter", &trainingRejected},
	{"alpha_training_active", "Whether a training run is currently active.", "gauge", &trainingActive},
	{"alpha_training_learning_loops", "Continuous learning loops currently running.", "gauge", &learningLoops},
	{"alpha_chat_messages_total", "Chat messages answered.", "counter", &chatMessages},
	{"alpha_media_registered_total", "Media items registered.", "counter", &mediaRegistered},
	{"alpha_workspaces_created_total", "Workspaces created.", "counter", &workspacesCreated},
	{"alpha_backups_completed_total", "Memory backups completed.", "counter", &backupsCompleted},
	{"alpha_backups_failed_total", "Memory backups that failed.", "counter", &backupsFailed},
	{"alpha_events_audited_total", "Lifecycle events read back by the audit consumer.", "counter", &eventsAudited},
	{"alpha_http_requests_total", "HTTP requests served.", "counter", &httpRequests},
}

func TrainingStarted() {
	trainingStarted.Add(1)
	trainingActive.Store(1)
}

func TrainingFinished(success bool) {
	if success {
		trainingSucceeded.Add(1)
	} else {
		trainingFailed.Add(1)
	}
	trainingActive.Store(0)
}

func TrainingRejected()    { trainingRejected.Add(1) }
func LearningLoopStarted() { learningLoops.Add(1) }
func LearningLoopStopped() { learningLoops.Add(-1) }
func ChatMessage()         { chatMessages.Add(1) }
func MediaRegistered()     { mediaRegistered.Add(1) }
func WorkspaceCreated()    { workspacesCreated.Add(1) }
func EventAudited()        { eventsAudited.Add(1) }
func HTTPRequest()         { httpRequests.Add(1) }

func BackupFinished(err error) {
	if err != nil {
		backupsFailed.Add(1)
		return
	}
	backupsCompleted.Add(1)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	Write(w)
}

func Write(w io.Writer) {
	for _, m := range registry {
		fmt.Fprintf(w, "# HELP %s %s\n", m.name, m.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", m.name, m.kind)
		fmt.Fprintf(w, "%s %d\n", m.name, m.value.Load())
	}
}
