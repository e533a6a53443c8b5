// Package retention периодически чистит хранилище runs.
//
// Sweeper по cron-расписанию:
//   - удаляет завершённые runs старше MaxAge (задачи удаляются каскадно)
//   - переводит в FAILED runs, зависшие в RUNNING дольше StaleAfter
//     (воркер упал посреди pipeline; повторов нет, run закрывается)
package retention
