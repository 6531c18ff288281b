// conf/consts.go hard coded constants
package conf

const (
	DefaultModelInputSize = 640 // square pixel size of the detector input tensor
	NumDefectClasses      = 8   // number of defect classes in the taxonomy

	FilenameTimestamp = "20060102_150405" // timestamp layout used in artifact file names
)
