package rabbitmq

// Exchange имя обменника уведомлений.
const Exchange = "notifications"

const (
	// ReviewQueue очередь писем об итогах рассмотрения заявок.
	ReviewQueue = "notification.review"
	// ReviewKey ключ маршрутизации решений по заявкам.
	ReviewKey = "review"
	// TrialQueue очередь писем об окончании пробного периода.
	TrialQueue = "notification.trial"
	// TrialKey ключ маршрутизации истекших пробных периодов.
	TrialKey = "trial"
)

// QueueConfig описывает очередь и ключ маршрутизации для привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди воркера почтовой рассылки.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ReviewQueue, RoutingKey: ReviewKey},
		{QueueName: TrialQueue, RoutingKey: TrialKey},
	}
}
