// Package cli реализует инструмент командной строки Careerflow.
//
// # Обзор
//
// CLI умеет выполнять pipeline локально (без БД и очередей) и работать
// с сервисной частью: ставить резюме в очередь воркеров и читать runs.
//
// # Ключевые компоненты
//
// ## Backend
//
// Хранилище и публикатор, нужные командам submit и runs. Создаётся
// лениво через backendFn после парсинга флагов, поэтому локальный
// `careerflow run` не требует PostgreSQL и RabbitMQ.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения и прогресс — в stderr.
// Это позволяет использовать pipe: careerflow run --resume cv.txt --json | jq .
//
// ## Commands
//
//   - run: локальное выполнение pipeline с прогрессом в терминале
//   - submit: создание run и публикация resume.pending
//   - runs: list, show
//   - config: публичная конфигурация AI-движка
//   - migrate: применение миграций БД
package cli
