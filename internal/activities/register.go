package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ClassifyISBNActivity)
	w.RegisterActivity(a.SaveDecisionActivity)
	w.RegisterActivity(a.UpdateBatchRunActivity)
	w.RegisterActivity(a.WriteBatchSummaryActivity)
}
