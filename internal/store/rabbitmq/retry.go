package rabbitmq

import (
	"context"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RetryCountHeader counts the trips a message has made through the retry
// queue.
const RetryCountHeader = "x-retry-count"

// maxRetryDelay caps the backoff of a single trip.
const maxRetryDelay = 10 * time.Minute

func RetryQueue(queue string) string { return queue + ".retry" }

func DeadLetterQueue(queue string) string { return queue + ".dlq" }

// RetryCount reads RetryCountHeader. Missing or unreadable values count
// as zero.
func RetryCount(h amqp.Table) int {
	switch v := h[RetryCountHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// RetryDelay is base doubled for every attempt after the first, capped at
// maxRetryDelay.
func RetryDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return min(d, maxRetryDelay)
}

// RetryPublishing copies d for its attempt-th trip through the retry
// queue. The per-message expiration is the wait before the broker
// dead-letters it back to the main queue.
func RetryPublishing(d amqp.Delivery, attempt int, delay time.Duration) amqp.Publishing {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[RetryCountHeader] = int32(attempt)

	return amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Body:         d.Body,
	}
}

// Retrier republishes failed deliveries to <queue>.retry with exponential
// backoff until MaxRetries trips have been made.
type Retrier struct {
	mu         sync.Mutex
	ch         *amqp.Channel
	queue      string
	maxRetries int
	baseDelay  time.Duration
}

func NewRetrier(ch *amqp.Channel, queue string, maxRetries int, baseDelay time.Duration) *Retrier {
	return &Retrier{ch: ch, queue: queue, maxRetries: maxRetries, baseDelay: baseDelay}
}

// Retry schedules another attempt for d. ok is false once d has used up
// its retries; the caller then rejects it to the dead-letter queue.
func (r *Retrier) Retry(ctx context.Context, d amqp.Delivery) (attempt int, ok bool, err error) {
	attempt = RetryCount(d.Headers) + 1
	if attempt > r.maxRetries {
		return attempt, false, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.ch.PublishWithContext(cctx, "", RetryQueue(r.queue), false, false,
		RetryPublishing(d, attempt, RetryDelay(r.baseDelay, attempt)))
	if err != nil {
		return attempt, false, err
	}
	return attempt, true, nil
}
