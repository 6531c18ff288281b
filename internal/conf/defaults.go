// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "AOI-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "aoi.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("detector.debug", false)
	viper.SetDefault("detector.modelpath", "models/pcb-defect.onnx")
	viper.SetDefault("detector.inputsize", DefaultModelInputSize)
	viper.SetDefault("detector.confidence", 0.25)
	viper.SetDefault("detector.iou", 0.45)
	viper.SetDefault("detector.threads", 0)
	viper.SetDefault("detector.usexnnpack", true)

	viper.SetDefault("inspection.artifacts.path", "artifacts/")
	viper.SetDefault("inspection.artifacts.retention.debug", false)
	viper.SetDefault("inspection.artifacts.retention.policy", "age")
	viper.SetDefault("inspection.artifacts.retention.window", 10)
	viper.SetDefault("inspection.artifacts.retention.maxusage", "80%")

	viper.SetDefault("inspection.video.debug", false)
	viper.SetDefault("inspection.video.samplecoefficient", 0.7)
	viper.SetDefault("inspection.video.gradedframeverdicts", false)
	viper.SetDefault("inspection.video.maxdefectframes", 20)
	viper.SetDefault("inspection.video.encoder.candidates", []string{
		"mp4v/mp4", "xvid/avi", "mjpg/avi", "h264/mp4",
	})
	viper.SetDefault("inspection.video.encoder.weboptimize", true)
	viper.SetDefault("inspection.video.encoder.transcodetimeout", 120)

	viper.SetDefault("inspection.batch.workers", 0)

	viper.SetDefault("inspection.mqtt.enabled", false)
	viper.SetDefault("inspection.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("inspection.mqtt.topic", "aoi/inspection")
	viper.SetDefault("inspection.mqtt.username", "")
	viper.SetDefault("inspection.mqtt.password", "")
	viper.SetDefault("inspection.mqtt.retain", false)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "aoi.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "aoi")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "aoi")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
