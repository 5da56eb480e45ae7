package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Нагрузочный прогон формы: каждая итерация открывает сессию, набирает заказ
// и проверяет, что отправка отдает редирект в WhatsApp

var (
	totalFlows   int64
	successFlows int64
	failedFlows  int64
	totalLatency int64
	minLatency   int64 = 1<<63 - 1
	maxLatency   int64
	startTime    time.Time
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Order     struct {
		CanDispatch bool   `json:"can_dispatch"`
		DispatchURL string `json:"dispatch_url"`
	} `json:"order"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "base API URL")
	concurrency := flag.Int("c", 20, "concurrent workers")
	duration := flag.Duration("d", 10*time.Second, "test duration")
	flag.Parse()

	fmt.Printf("🚀 Нагрузочное тестирование формы заказа\n")
	fmt.Printf("📍 URL: %s\n", *baseURL)
	fmt.Printf("👥 Concurrency: %d\n", *concurrency)
	fmt.Printf("⏱️  Длительность: %s\n", *duration)

	stop := make(chan struct{})
	var wg sync.WaitGroup

	startTime = time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go worker(*baseURL, stop, &wg)
	}

	go statsCollector(stop)

	time.Sleep(*duration)
	close(stop)
	wg.Wait()

	printFinalStats()
}

func newClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		// редирект в wa.me не ходим, нам нужен только сам 302
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func worker(baseURL string, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	client := newClient()

	for {
		select {
		case <-stop:
			return
		default:
		}

		start := time.Now()
		err := runFlow(client, baseURL)
		record(time.Since(start).Microseconds(), err)
	}
}

// runFlow один покупатель: сессия, 2 марміты, напиток, имя, оплата, отправка
func runFlow(client *http.Client, baseURL string) error {
	var created sessionResponse
	if err := call(client, http.MethodPost, baseURL+"/sessions", nil, http.StatusCreated, &created); err != nil {
		return err
	}
	session := baseURL + "/sessions/" + created.SessionID

	for _, key := range []string{"comp1", "comp1", "gua"} {
		if err := call(client, http.MethodPost, session+"/items/"+key+"/increment", nil, http.StatusOK, nil); err != nil {
			return err
		}
	}

	if err := call(client, http.MethodPut, session+"/fields/customerName", map[string]string{"value": "Carga"}, http.StatusOK, nil); err != nil {
		return err
	}

	var view sessionResponse
	if err := call(client, http.MethodPut, session+"/fields/paymentMethod", map[string]string{"value": "Débito"}, http.StatusOK, &view); err != nil {
		return err
	}
	if !view.Order.CanDispatch {
		return fmt.Errorf("session %s: order not dispatchable", created.SessionID)
	}

	if err := call(client, http.MethodGet, session+"/dispatch", nil, http.StatusFound, nil); err != nil {
		return err
	}

	return call(client, http.MethodDelete, session, nil, http.StatusNoContent, nil)
}

func call(client *http.Client, method, url string, body interface{}, wantStatus int, dest interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s: status %d, want %d", method, url, resp.StatusCode, wantStatus)
	}
	if dest != nil {
		return json.NewDecoder(resp.Body).Decode(dest)
	}
	return nil
}

func record(latency int64, err error) {
	atomic.AddInt64(&totalFlows, 1)
	if err != nil {
		atomic.AddInt64(&failedFlows, 1)
		return
	}
	atomic.AddInt64(&successFlows, 1)
	atomic.AddInt64(&totalLatency, latency)

	for {
		old := atomic.LoadInt64(&minLatency)
		if latency >= old || atomic.CompareAndSwapInt64(&minLatency, old, latency) {
			break
		}
	}
	for {
		old := atomic.LoadInt64(&maxLatency)
		if latency <= old || atomic.CompareAndSwapInt64(&maxLatency, old, latency) {
			break
		}
	}
}

func statsCollector(stop <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := time.Since(startTime).Seconds()
			total := atomic.LoadInt64(&totalFlows)
			fmt.Printf("⏱️  [%.0fs] flows/s: %.0f | Всего: %d | ✅ %d | ❌ %d\n",
				elapsed, float64(total)/elapsed, total,
				atomic.LoadInt64(&successFlows), atomic.LoadInt64(&failedFlows))
		}
	}
}

func printFinalStats() {
	elapsed := time.Since(startTime).Seconds()
	total := atomic.LoadInt64(&totalFlows)
	success := atomic.LoadInt64(&successFlows)

	avg := int64(0)
	if success > 0 {
		avg = atomic.LoadInt64(&totalLatency) / success
	}
	minL := atomic.LoadInt64(&minLatency)
	if success == 0 {
		minL = 0
	}

	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Итого за %.1f сек: %d сценариев, ✅ %d, ❌ %d\n", elapsed, total, success, atomic.LoadInt64(&failedFlows))
	fmt.Printf("⚡ Латентность сценария (мкс): min %d | avg %d | max %d\n", minL, avg, atomic.LoadInt64(&maxLatency))
	if total > 0 && success == 0 {
		log.Fatalf("❌ Ни один сценарий не прошел")
	}
}
