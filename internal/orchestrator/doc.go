// Package orchestrator выполняет pipeline обработки резюме.
//
// Orchestrator отвечает за:
//   - Построение pipeline из статического графа задач
//   - Выбор задач, чьи зависимости завершены
//   - Выполнение задач через AI-движок (последовательно или параллельно)
//   - Журнал выполнения и снимки прогресса
//   - Агрегацию результатов в структуру фиксированной формы
//
// Падение любой задачи фатально для всего pipeline: повторов нет,
// новые задачи после обнаружения ошибки не запускаются.
package orchestrator
