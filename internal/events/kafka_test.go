package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mp := mocks.NewSyncProducer(t, cfg)
	defer mp.Close()

	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "donation.transactions" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "DN123" {
			return errors.New("wrong key " + string(key))
		}
		raw, _ := msg.Value.Encode()
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		if ev.Type != TypeStatusChanged || ev.Status != "success" || ev.OccurredAt.IsZero() {
			return errors.New("unexpected payload " + string(raw))
		}
		return nil
	})

	p := NewKafkaPublisher(mp, "donation.transactions")
	err := p.Publish(context.Background(), Event{
		Type:            TypeStatusChanged,
		MerchantOrderID: "DN123",
		Status:          "success",
		PreviousStatus:  "pending",
		Amount:          150000,
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mp := mocks.NewSyncProducer(t, cfg)
	defer mp.Close()

	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisher(mp, "donation.transactions")
	err := p.Publish(context.Background(), Event{Type: TypeTransactionPending, MerchantOrderID: "DN1"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("Publish() error = %v, want ErrOutOfBrokers", err)
	}
}

func TestKafkaPublisher_CanceledContext(t *testing.T) {
	mp := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	defer mp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewKafkaPublisher(mp, "t")
	if err := p.Publish(ctx, Event{Type: TypeTransactionPending}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish() error = %v, want context.Canceled", err)
	}
}
