package kafka

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/IBM/sarama"
	"github.com/xdg/scram"
)

var (
	// SHA256 generates the hash function for SCRAM-SHA-256.
	SHA256 scram.HashGeneratorFcn = sha256.New

	// SHA512 generates the hash function for SCRAM-SHA-512.
	SHA512 scram.HashGeneratorFcn = sha512.New
)

// SCRAMClient implementation for the SCRAM authentication
type SCRAMClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

// Begin prepares the client for the SCRAM exchange
func (x *SCRAMClient) Begin(userName, password, authzID string) (err error) {
	x.Client, err = x.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	x.ClientConversation = x.Client.NewConversation()
	return nil
}

// Step steps client through the SCRAM exchange
func (x *SCRAMClient) Step(challenge string) (response string, err error) {
	response, err = x.ClientConversation.Step(challenge)
	return
}

// Done should return true when the SCRAM conversation
// is over.
func (x *SCRAMClient) Done() bool {
	return x.ClientConversation.Done()
}

// ConfigureSASL fills a sarama config for SASL/SCRAM brokers. Mechanism is
// "SCRAM-SHA-256" or "SCRAM-SHA-512"; anything else falls back to PLAIN.
func ConfigureSASL(config *sarama.Config, username, password, mechanism string) {
	config.Net.SASL.Enable = true
	config.Net.SASL.User = username
	config.Net.SASL.Password = password

	switch mechanism {
	case sarama.SASLTypeSCRAMSHA256:
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &SCRAMClient{HashGeneratorFcn: SHA256}
		}
	case sarama.SASLTypeSCRAMSHA512:
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &SCRAMClient{HashGeneratorFcn: SHA512}
		}
	default:
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	}
}
