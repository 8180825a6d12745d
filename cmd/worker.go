package cmd

import (
	"context"

	"creditline/worker"
	"creditline/worker/liquidator"

	"github.com/drone/signal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "run the liquidation keeper",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		eventStore := provideEventStore(database)
		agreementService := provideAgreementService(ctx, eventStore)

		workers := []worker.IJob{
			liquidator.New(provideConfig(), agreementService, provideComptroller()),
		}

		for _, w := range workers {
			if err := w.Start(); err != nil {
				logrus.WithError(err).Fatal("start worker")
			}
		}

		ctx, quit := context.WithCancel(ctx)
		signal.WithContextFunc(ctx, quit)

		logrus.Infoln("liquidation keeper started")
		<-ctx.Done()

		for _, w := range workers {
			if err := w.Stop(); err != nil {
				logrus.WithError(err).Error("stop worker")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
