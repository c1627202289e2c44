package config

type WorkerKeyStruct struct {
	ScheduleAuditQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ScheduleAuditQueue: "schedule_audit_queue",
}
