// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//   - progress.go   — публикация прогресса pipeline как orchestrator.Reporter
//
// Типы сообщений:
//   - resume.pending      — резюме ожидает обработки
//   - task.progress       — задача pipeline начата или завершена
//   - pipeline.completed  — pipeline завершён (успешно или с ошибкой)
//
// Exchanges:
//   - careerflow.resumes  — входящие резюме
//   - careerflow.events   — события выполнения
//   - careerflow.dlq      — dead letter queue
package mq
