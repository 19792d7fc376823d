/*
go-objectdash annotates live video.  Frames are pushed through a chain of
handlers, one of which runs an object detector out of band on its own OS
thread while visual trackers carry each detected object across the frames the
detector never sees.

The packages are:

  - tracker: geometry, visual trackers and the annotation lifecycle that
    matches fresh detections to the objects already being followed
  - detector: detector implementations and the asynchronous worker
  - preprocess, postprocess: letterboxing and YOLO output decoding for the
    OpenCV DNN detector
  - pipeline: the frame handler chain and run loop
  - annotator: the handler tying the worker and tracker together
  - stage: other handlers such as background subtraction and recording
  - render: drawing annotations onto frames
  - config: JSON configuration and command line flags

See example code and usage in the example subdirectory.
*/
package objectdash
