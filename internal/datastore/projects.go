package datastore

// CreateProject inserts a new project.
func (ds *DataStore) CreateProject(project *Project) error {
	return ds.DB.Create(project).Error
}

// GetProject retrieves a project by id.
func (ds *DataStore) GetProject(id uint) (Project, error) {
	var project Project
	err := ds.DB.First(&project, id).Error
	return project, notFound(err)
}

// GetAllProjects retrieves every project.
func (ds *DataStore) GetAllProjects() ([]Project, error) {
	var projects []Project
	err := ds.DB.Order("name").Find(&projects).Error
	return projects, err
}

// UpdateProject saves a modified project.
func (ds *DataStore) UpdateProject(project *Project) error {
	return ds.DB.Save(project).Error
}

// DeleteProject removes a project and cascades to its repositories.
func (ds *DataStore) DeleteProject(id uint) error {
	return ds.DB.Delete(&Project{}, id).Error
}

// CreateRepository inserts a new repository (squad).
func (ds *DataStore) CreateRepository(repo *Repository) error {
	return ds.DB.Create(repo).Error
}

// GetRepository retrieves a repository by id.
func (ds *DataStore) GetRepository(id uint) (Repository, error) {
	var repo Repository
	err := ds.DB.First(&repo, id).Error
	return repo, notFound(err)
}

// GetRepositories retrieves the repositories of a project.
func (ds *DataStore) GetRepositories(projectID uint) ([]Repository, error) {
	var repos []Repository
	err := ds.DB.Where("project_id = ?", projectID).Order("name").Find(&repos).Error
	return repos, err
}

// UpdateRepository saves a modified repository.
func (ds *DataStore) UpdateRepository(repo *Repository) error {
	return ds.DB.Save(repo).Error
}

// DeleteRepository removes a repository and cascades to its suites.
func (ds *DataStore) DeleteRepository(id uint) error {
	return ds.DB.Delete(&Repository{}, id).Error
}
