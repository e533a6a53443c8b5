// Package worker обрабатывает резюме, поставленные в очередь.
//
// # Обзор
//
// Worker — stateless сервис, который:
//
//   - Получает run'ы из очереди RabbitMQ resumes.pending (event-driven)
//   - Периодически проверяет PENDING run'ы в БД (polling fallback)
//   - Атомарно захватывает run и выполняет для него свежий pipeline
//   - Сохраняет снимки задач и итоговый результат
//   - Публикует прогресс задач и итог run'а в careerflow.events
//
// Workers масштабируются горизонтально: захват run'а через
// RunStore.Claim гарантирует, что run выполнится один раз.
//
// # Использование
//
//	w := worker.New(worker.Config{
//	    Runs:      runRepo,
//	    Tasks:     taskRepo,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Engine:    engine,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Обработка run
//
//  1. Загрузка run из БД, проверка статуса PENDING
//  2. Claim: PENDING → RUNNING (только один воркер выигрывает)
//  3. Построение pipeline и выполнение через orchestrator
//  4. Успех → SUCCEEDED + результат, ошибка → FAILED + роль упавшей задачи
//  5. Публикация pipeline.completed
//
// Повторов нет: упавший run остаётся FAILED.
package worker
