package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func TestSaramaProducer_Publish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, SaramaConfig())
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		require.Equal(t, `{"type":"deposit"}`, string(val))
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := WrapSyncProducer(mock)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "junction.events", []byte("alice"), []byte(`{"type":"deposit"}`)))
	require.ErrorIs(t, p.Publish(ctx, "junction.events", nil, []byte("x")), sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}
