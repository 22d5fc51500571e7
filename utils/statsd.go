package utils

import (
	"fmt"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	Logger "github.com/Luismorlan/socialmux/utils/log"
)

// GetStatsdClient creates a statsd client talking to the local Datadog agent.
// Returns a nil client on failure, which datadog-go treats as a no-op, so
// metric emission never blocks serving.
func GetStatsdClient(namespace string) *statsd.Client {
	addr := fmt.Sprintf("%s:%s", os.Getenv("DD_AGENT_HOST"), os.Getenv("DD_AGENT_STATSD_PORT"))
	client, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		Logger.Log.Errorln("cannot create statsd client: ", err)
		return nil
	}
	return client
}
