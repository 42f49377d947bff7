package model

// Agent is a reporting source, identified by the endpoint it reports from.
type Agent struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Address string `gorm:"size:200;not null" json:"address"`
}

func (Agent) TableName() string { return "agents" }

// AgentPayload is the writable field set of an Agent.
type AgentPayload struct {
	Address *string `json:"address"`
}
