package config

type WorkerKeyStruct struct {
	GenerateImagesQueue  string
	PersistSnapshotQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GenerateImagesQueue:  "generate_images_queue",
	PersistSnapshotQueue: "persist_snapshot_queue",
}
