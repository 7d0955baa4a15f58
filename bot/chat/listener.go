package chat

// EngineListener observes routing outcomes.
type EngineListener interface {
	CommandHandled(name string)
	WorkflowCompleted(id WorkflowID)
	SessionExpired()
}

type nopListener struct{}

func (nopListener) CommandHandled(string)        {}
func (nopListener) WorkflowCompleted(WorkflowID) {}
func (nopListener) SessionExpired()              {}
