// Package cli реализует инструмент командной строки Cuckoo.
//
// # Обзор
//
// CLI работает в двух режимах:
//   - клиент Cuckoo API (trigger, status, ping, workers) — через HTTP;
//   - локальный запуск (run) — планировщик в том же процессе.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Cuckoo API. Инкапсулирует HTTP-запросы,
// разбор конвертов ответа ({"data": ...}, {"error": ...})
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	resp, err := client.Trigger(body)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON с отступами — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: cuckoo workers --json | jq .
//
// ## Commands
//
//   - trigger -f FILE [--amqp]: POST /trigger или публикация в triggers.pending
//   - status REQUEST_ID: GET /requests/{id}
//   - ping, workers: служебные запросы к API
//   - run -f FILE: разбор, запуск и ожидание DONE в текущем процессе
//
// Команды создаются фабричными функциями (NewTriggerCmd и т.д.),
// принимающими clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
